package catalog

type CreateServiceRequest struct {
	Slug         string `json:"slug" validate:"required,min=2,max=100"`
	Name         string `json:"name" validate:"required,min=2,max=200"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
}

type CreatePackageRequest struct {
	Slug          string   `json:"slug" validate:"required,min=2,max=100"`
	Name          string   `json:"name" validate:"required,min=2,max=200"`
	Description   string   `json:"description"`
	Price         int64    `json:"price" validate:"gt=0"`
	DPPercentage  int      `json:"dpPercentage" validate:"gte=1,lte=100"`
	Inclusions    []string `json:"inclusions"`
	DurationHours int      `json:"durationHours" validate:"gte=0"`
	DisplayOrder  int      `json:"displayOrder" validate:"gte=0"`
}

// UpdatePackageRequest is a partial update; nil fields are left unchanged.
type UpdatePackageRequest struct {
	Name          *string   `json:"name" validate:"omitempty,min=2,max=200"`
	Description   *string   `json:"description"`
	Price         *int64    `json:"price" validate:"omitempty,gt=0"`
	DPPercentage  *int      `json:"dpPercentage" validate:"omitempty,gte=1,lte=100"`
	Inclusions    *[]string `json:"inclusions"`
	DurationHours *int      `json:"durationHours" validate:"omitempty,gte=0"`
	DisplayOrder  *int      `json:"displayOrder" validate:"omitempty,gte=0"`
	IsActive      *bool     `json:"isActive"`
}
