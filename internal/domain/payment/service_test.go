package payment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobook/internal/database"
	"studiobook/internal/database/dbtest"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/booking"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/catalog"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/events"
	"studiobook/internal/storage"
)

var jpeg = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x07}, 128)...)

type stubLimiter struct {
	deny  bool
	retry time.Duration
	keys  []string
}

func (l *stubLimiter) Check(_ context.Context, identifier string, action ratelimit.Action) ratelimit.Result {
	if action == ratelimit.ActionUploadPaymentProof {
		l.keys = append(l.keys, identifier)
	}
	if l.deny && action == ratelimit.ActionUploadPaymentProof {
		return ratelimit.Result{Allowed: false, RetryAfter: l.retry}
	}
	return ratelimit.Result{Allowed: true}
}

type failingProofs struct {
	*booking.Repository
}

func (failingProofs) CreateProof(context.Context, *booking.PaymentProof) error {
	return errors.New("disk full")
}

type env struct {
	db       *gorm.DB
	root     string
	bookings *booking.Service
	payments *Service
	limiter  *stubLimiter
	events   *events.Recorder
	signer   *storage.Signer
	pkgID    string
	admin    audit.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t, &catalog.Service{}, &catalog.Package{}, &calendar.Slot{}, &booking.Booking{}, &booking.PaymentProof{}, &audit.Log{})
	ctx := context.Background()
	log := zap.NewNop()
	tx := database.NewTxManager(db)
	rec := audit.NewRecorder(db, log)

	cat := catalog.NewCatalog(catalog.NewRepository(db), rec)
	_, err := cat.CreateService(ctx, audit.System(), catalog.CreateServiceRequest{Slug: "prewedding", Name: "Prewedding"}, audit.Meta{})
	require.NoError(t, err)
	pkg, err := cat.CreatePackage(ctx, audit.System(), "prewedding", catalog.CreatePackageRequest{
		Slug: "gold", Name: "Gold", Price: 4_000_000, DPPercentage: 30,
	}, audit.Meta{})
	require.NoError(t, err)

	cal := calendar.NewCalendar(calendar.NewRepository(db), tx, rec, nil, time.UTC)
	limiter := &stubLimiter{}
	pub := &events.Recorder{}
	repo := booking.NewRepository(db)

	bookings := booking.NewService(booking.Deps{
		Repo: repo, Tx: tx, Packages: cat, Slots: cal, Limiter: limiter, Audit: rec, Events: pub, Log: log,
	}, booking.Config{CodePrefix: "STU", Location: time.UTC})

	root := t.TempDir()
	disk, err := storage.NewDisk(root)
	require.NoError(t, err)
	signer := storage.NewSigner("files-secret", "http://studio.test")

	payments := NewService(Deps{
		Bookings:  repo,
		Lifecycle: bookings,
		Slots:     cal,
		Tx:        tx,
		Limiter:   limiter,
		Audit:     rec,
		Store:     disk,
		Signer:    signer,
		Log:       log,
	}, Config{})

	return &env{
		db: db, root: root, bookings: bookings, payments: payments, limiter: limiter,
		events: pub, signer: signer, pkgID: pkg.ID, admin: audit.Admin("admin-1", "admin@studio.test"),
	}
}

func (e *env) book(t *testing.T, date string) *booking.CreateResponse {
	t.Helper()
	resp, err := e.bookings.Create(context.Background(), booking.CreateRequest{
		PackageID:     e.pkgID,
		EventDate:     date,
		EventType:     "Prewedding",
		EventLocation: "Kebun Raya Bogor",
		ClientName:    "Rina Wijaya",
		ClientEmail:   "rina@example.com",
		ClientPhone:   "081298765432",
	}, audit.Meta{IP: "10.1.1.1"})
	require.NoError(t, err)
	return resp
}

func (e *env) upload(t *testing.T, token string) *UploadResponse {
	t.Helper()
	resp, err := e.payments.Upload(context.Background(), token, proofFile(t), UploadDetails{
		BankName: "BCA", AccountName: "Rina Wijaya", TransferAmount: "1200000", TransferDate: "2026-06-02",
	}, audit.Meta{})
	require.NoError(t, err)
	return resp
}

func proofFile(t *testing.T) *storage.File {
	t.Helper()
	f, err := storage.Inspect("transfer.jpg", int64(len(jpeg)), bytes.NewReader(jpeg))
	require.NoError(t, err)
	return f
}

func storedFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(time.DateOnly)
}

func TestUpload_MovesBookingToWaitingVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.book(t, futureDate(30))

	resp := e.upload(t, b.AccessToken)
	assert.Equal(t, booking.StatusWaitingVerification, resp.Status)
	assert.Equal(t, UploadedMessage, resp.Message)

	repo := booking.NewRepository(e.db)
	got, err := repo.GetByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusWaitingVerification, got.Status)

	proof, err := repo.GetProof(ctx, resp.PaymentProofID)
	require.NoError(t, err)
	assert.Equal(t, booking.ProofPending, proof.VerificationStatus)
	assert.Equal(t, "image/jpeg", proof.FileType)
	assert.Equal(t, int64(1_200_000), *proof.TransferAmount)
	assert.True(t, strings.HasPrefix(proof.StorageKey, b.BookingID+"/"))
	assert.True(t, strings.HasPrefix(proof.FileURL, "http://studio.test/api/files/"))
	assert.Len(t, storedFiles(t, e.root), 1)

	assert.Equal(t, []string{b.BookingID}, e.limiter.keys)
	assert.Equal(t, []events.Type{events.BookingCreated, events.ProofUploaded}, e.events.Types())

	logs, err := audit.NewRecorder(e.db, nil).List(ctx, audit.Filter{EntityType: audit.EntityPaymentProof, EntityID: proof.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionUploaded, logs[0].Action)
	assert.Equal(t, audit.ActorClient, logs[0].ActorType)
}

func TestUpload_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.book(t, futureDate(30))

	_, err := e.payments.Upload(ctx, "", proofFile(t), UploadDetails{}, audit.Meta{})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = e.payments.Upload(ctx, "unknown-token", proofFile(t), UploadDetails{}, audit.Meta{})
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = e.payments.Upload(ctx, b.AccessToken, proofFile(t), UploadDetails{TransferDate: "kemarin"}, audit.Meta{})
	var verr *booking.ValidationError
	assert.True(t, errors.As(err, &verr))

	e.upload(t, b.AccessToken)

	// waiting for verification: a second proof is a client error, not a server error
	_, err = e.payments.Upload(ctx, b.AccessToken, proofFile(t), UploadDetails{}, audit.Meta{})
	assert.ErrorIs(t, err, ErrUploadNotAllowed)
	assert.Len(t, storedFiles(t, e.root), 1)
}

func TestUpload_RateLimited(t *testing.T) {
	e := newEnv(t)
	b := e.book(t, futureDate(30))
	e.limiter.deny = true
	e.limiter.retry = 59*time.Minute + 30*time.Second

	_, err := e.payments.Upload(context.Background(), b.AccessToken, proofFile(t), UploadDetails{}, audit.Meta{})
	var rerr *booking.RateLimitError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "60 menit", rerr.RetryAfter)
	assert.Empty(t, storedFiles(t, e.root))
}

func TestUpload_FailedTransactionRemovesObject(t *testing.T) {
	e := newEnv(t)
	b := e.book(t, futureDate(30))
	e.payments.Bookings = failingProofs{booking.NewRepository(e.db)}

	_, err := e.payments.Upload(context.Background(), b.AccessToken, proofFile(t), UploadDetails{}, audit.Meta{})
	require.Error(t, err)
	assert.Empty(t, storedFiles(t, e.root))

	got, err := booking.NewRepository(e.db).GetByID(context.Background(), b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusInvoiceGenerated, got.Status)
}

func TestApprove_BooksTheDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := futureDate(40)
	b := e.book(t, date)
	up := e.upload(t, b.AccessToken)

	resp, err := e.payments.Approve(ctx, e.admin, up.PaymentProofID, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, booking.ProofApproved, resp.VerificationStatus)
	assert.Equal(t, booking.StatusDPApproved, resp.BookingStatus)

	repo := booking.NewRepository(e.db)
	got, err := repo.GetByID(ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDPApproved, got.Status)
	assert.NotNil(t, got.DPApprovedAt)

	proof, err := repo.GetProof(ctx, up.PaymentProofID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", *proof.VerifiedBy)
	assert.NotNil(t, proof.VerifiedAt)

	slot, err := calendar.NewRepository(e.db).GetByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, calendar.SlotBooked, slot.Status)
	assert.Equal(t, b.BookingID, *slot.BookingID)

	assert.Contains(t, e.events.Types(), events.DPApproved)

	_, err = e.payments.Approve(ctx, e.admin, up.PaymentProofID, audit.Meta{})
	assert.ErrorIs(t, err, ErrProofNotPending)

	// an approved booking is terminal
	_, err = e.bookings.Cancel(ctx, e.admin, b.BookingID, "", audit.Meta{})
	assert.ErrorIs(t, err, booking.ErrInvalidStatusTransition)
}

func TestApprove_SecondBookingForSameDateConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := futureDate(50)

	first := e.book(t, date)
	second := e.book(t, date)
	firstProof := e.upload(t, first.AccessToken)
	secondProof := e.upload(t, second.AccessToken)

	_, err := e.payments.Approve(ctx, e.admin, firstProof.PaymentProofID, audit.Meta{})
	require.NoError(t, err)

	_, err = e.payments.Approve(ctx, e.admin, secondProof.PaymentProofID, audit.Meta{})
	assert.ErrorIs(t, err, ErrSlotTaken)

	// the failed approval left nothing behind
	repo := booking.NewRepository(e.db)
	got, err := repo.GetByID(ctx, second.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusWaitingVerification, got.Status)
	assert.Nil(t, got.DPApprovedAt)
	proof, err := repo.GetProof(ctx, secondProof.PaymentProofID)
	require.NoError(t, err)
	assert.Equal(t, booking.ProofPending, proof.VerificationStatus)

	slot, err := calendar.NewRepository(e.db).GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, *slot.BookingID)
}

func TestReject_AllowsReupload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := futureDate(60)
	b := e.book(t, date)
	up := e.upload(t, b.AccessToken)

	_, err := e.payments.Reject(ctx, e.admin, up.PaymentProofID, "  ", audit.Meta{})
	assert.ErrorIs(t, err, ErrReasonRequired)

	resp, err := e.payments.Reject(ctx, e.admin, up.PaymentProofID, "Nominal tidak sesuai", audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, booking.ProofRejected, resp.VerificationStatus)
	assert.Equal(t, booking.StatusDPRejected, resp.BookingStatus)

	proof, err := booking.NewRepository(e.db).GetProof(ctx, up.PaymentProofID)
	require.NoError(t, err)
	assert.Equal(t, "Nominal tidak sesuai", *proof.RejectionReason)

	slot, err := calendar.NewRepository(e.db).GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, calendar.SlotAvailable, slot.Status)

	again := e.upload(t, b.AccessToken)
	assert.Equal(t, booking.StatusWaitingVerification, again.Status)

	track, err := e.bookings.Track(ctx, b.AccessToken)
	require.NoError(t, err)
	require.Len(t, track.PaymentProofs, 2)
	assert.Equal(t, again.PaymentProofID, track.PaymentProofs[0].ID)
}

func TestReject_PastDeadlineSurvivesExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rejected := e.book(t, futureDate(40))
	unpaid := e.book(t, futureDate(41))
	up := e.upload(t, rejected.AccessToken)

	later := func() time.Time { return time.Now().Add(96 * time.Hour) }
	e.bookings.SetClock(later)
	e.payments.SetClock(later)

	_, err := e.payments.Reject(ctx, e.admin, up.PaymentProofID, "Bukti buram", audit.Meta{})
	require.NoError(t, err)

	n, err := e.bookings.ExpireOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the never-paid invoice expires")

	repo := booking.NewRepository(e.db)
	b, err := repo.GetByID(ctx, rejected.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDPRejected, b.Status)

	b, err = repo.GetByID(ctx, unpaid.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)

	again := e.upload(t, rejected.AccessToken)
	assert.Equal(t, booking.StatusWaitingVerification, again.Status)
}

func TestProofURL(t *testing.T) {
	e := newEnv(t)
	b := e.book(t, futureDate(30))
	up := e.upload(t, b.AccessToken)

	resp, err := e.payments.ProofURL(context.Background(), up.PaymentProofID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AdminURLTTL), resp.ExpiresAt, 5*time.Second)

	token := strings.TrimPrefix(resp.URL, "http://studio.test/api/files/")
	bucket, key, err := e.signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, storage.BucketPaymentProofs, bucket)
	assert.True(t, strings.HasPrefix(key, b.BookingID+"/"))

	_, err = e.payments.ProofURL(context.Background(), "missing")
	assert.ErrorIs(t, err, booking.ErrProofNotFound)
}
