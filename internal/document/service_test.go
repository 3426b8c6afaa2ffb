package document

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/pdf"
	"github.com/petitmaker/training-backend/internal/storage"
)

/* ---- fakes ---- */

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte // bucket/key -> bytes
	fail  bool
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{blobs: map[string][]byte{}} }

func (f *fakeBlobs) Put(bucket, key string, r io.Reader) (string, error) {
	if f.fail {
		return "", errors.New("blob store down")
	}
	b, _ := io.ReadAll(r)
	f.mu.Lock()
	f.blobs[bucket+"/"+key] = b
	f.mu.Unlock()
	return "https://files.test/" + bucket + "/" + key, nil
}

func (f *fakeBlobs) Get(bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

func (f *fakeBlobs) PublicURL(bucket, key string) (string, error) {
	return "https://files.test/" + bucket + "/" + key, nil
}

func (f *fakeBlobs) Remove(bucket, key string) error { return nil }

type fakeRenderer struct {
	fail  bool
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, req pdf.Request) ([]byte, error) {
	f.calls++
	if f.fail {
		return nil, pdf.ErrUnavailable
	}
	return []byte("%PDF-1.4 " + req.Kind), nil
}

func setup(t *testing.T) (*Service, Store, learner.Store, *fakeBlobs, *fakeRenderer) {
	t.Helper()
	ctx := context.Background()
	ls := learner.NewInMemoryStore()
	ds := NewInMemoryStore()
	blobs := newFakeBlobs()
	rend := &fakeRenderer{}
	svc := NewService(ds, ls, blobs, rend, nil, nil)

	if err := ls.PutTraining(ctx, learner.Training{ID: "tr-1", Title: "Safety"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutCompany(ctx, learner.Company{ID: "co-1", Name: "Acme", Status: "validated", TrainingID: "tr-1"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutProfile(ctx, learner.Profile{
		ID: "lrn-1", Email: "jo@acme.test", CompanyID: "co-1", TrainingID: "tr-1",
	}); err != nil {
		t.Fatal(err)
	}
	return svc, ds, ls, blobs, rend
}

/* ---- resolution chain ---- */

func TestResolveUnsignedNeedsSigning(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	for _, typ := range []Type{TypeAgreement, TypeAttendance, TypeCertificate} {
		res, err := svc.Resolve(context.Background(), "lrn-1", typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if res.State != StateNeedsSigning {
			t.Fatalf("%s: state=%s, want needs_signing", typ, res.State)
		}
	}
}

func TestResolveDocumentKindURLIsReturnedDirectly(t *testing.T) {
	ctx := context.Background()
	svc, _, ls, _, _ := setup(t)
	if err := ls.UpdateProfile(ctx, "lrn-1", learner.Patch{
		HasSignedAgreement: learner.BoolPtr(true),
		Agreement: &learner.SignatureRef{
			URL: "https://files.test/documents/lrn-1/training_agreement/1.pdf", Kind: learner.AssetDocument,
		},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Resolve(ctx, "lrn-1", TypeAgreement)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateResolved || !strings.HasSuffix(res.URL, "1.pdf") {
		t.Fatalf("got %+v, want resolved document url", res)
	}
}

func TestResolveSignatureKindFallsBackToRecord(t *testing.T) {
	ctx := context.Background()
	svc, ds, ls, _, _ := setup(t)
	if err := ls.UpdateProfile(ctx, "lrn-1", learner.Patch{
		HasSignedAttendance: learner.BoolPtr(true),
		Attendance: &learner.SignatureRef{
			URL: "https://files.test/signatures/lrn-1/attendance_sheet/signature.png", Kind: learner.AssetSignature,
		},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Insert(ctx, Record{
		LearnerID: "lrn-1", TrainingID: "tr-1", Type: TypeAttendance,
		FileURL: "https://files.test/documents/lrn-1/attendance_sheet/9.pdf",
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Resolve(ctx, "lrn-1", TypeAttendance)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateResolved || !strings.HasSuffix(res.URL, "9.pdf") {
		t.Fatalf("got %+v, want the recorded pdf, never the signature png", res)
	}
}

func TestResolveSignedWithoutPDFRequiresRegeneration(t *testing.T) {
	// the §8 scenario: signed certificate, signature-only URL, no record
	ctx := context.Background()
	svc, _, ls, _, _ := setup(t)
	if err := ls.UpdateProfile(ctx, "lrn-1", learner.Patch{
		HasSignedCertificate: learner.BoolPtr(true),
		Certificate: &learner.SignatureRef{
			URL: "https://files.test/signatures/lrn-1/completion_certificate/signature.png", Kind: learner.AssetSignature,
		},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Resolve(ctx, "lrn-1", TypeCertificate)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateRegenerationRequired {
		t.Fatalf("state=%s, want regeneration_required", res.State)
	}
	if res.URL != "" {
		t.Fatalf("url=%q, must never surface the raw signature image", res.URL)
	}
}

/* ---- signing workflow ---- */

func TestSignHappyPath(t *testing.T) {
	ctx := context.Background()
	svc, ds, ls, _, _ := setup(t)

	res, err := svc.Sign(ctx, "lrn-1", TypeAgreement, []byte("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateResolved || res.URL == "" {
		t.Fatalf("got %+v, want resolved", res)
	}

	p, _ := ls.GetProfile(ctx, "lrn-1")
	if !p.HasSignedAgreement {
		t.Fatal("signed flag not set")
	}
	if p.Agreement.Kind != learner.AssetDocument {
		t.Fatalf("reference kind=%s, want document after generation", p.Agreement.Kind)
	}
	if _, err := ds.Latest(ctx, "lrn-1", "tr-1", TypeAgreement); err != nil {
		t.Fatalf("document record missing: %v", err)
	}
}

func TestSignSurvivesRenderFailure(t *testing.T) {
	ctx := context.Background()
	svc, _, ls, _, rend := setup(t)
	rend.fail = true

	res, err := svc.Sign(ctx, "lrn-1", TypeAttendance, []byte("png-bytes"))
	if err != nil {
		t.Fatalf("interrupted generation must not fail the signing: %v", err)
	}
	if res.State != StateRegenerationRequired {
		t.Fatalf("state=%s, want regeneration_required", res.State)
	}

	// the signature landed and the flag flipped: recoverable state
	p, _ := ls.GetProfile(ctx, "lrn-1")
	if !p.HasSignedAttendance {
		t.Fatal("signed flag lost")
	}
	if p.Attendance.Kind != learner.AssetSignature {
		t.Fatalf("reference kind=%s, want signature until a pdf exists", p.Attendance.Kind)
	}

	// and regeneration repairs it once the renderer is back
	rend.fail = false
	res, err = svc.Regenerate(ctx, "lrn-1", TypeAttendance)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateResolved {
		t.Fatalf("state=%s, want resolved after regeneration", res.State)
	}
	resolved, err := svc.Resolve(ctx, "lrn-1", TypeAttendance)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.State != StateResolved {
		t.Fatalf("resolve state=%s, want resolved", resolved.State)
	}
}

func TestSignRejectsIneligibleLearner(t *testing.T) {
	ctx := context.Background()
	svc, _, ls, _, _ := setup(t)
	if err := ls.SetCompanyStatus(ctx, "co-1", "pending"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Sign(ctx, "lrn-1", TypeAgreement, []byte("png")); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err=%v, want ErrNotEligible", err)
	}
}

func TestRegenerateUnsignedSaysNeedsSigning(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	res, err := svc.Regenerate(context.Background(), "lrn-1", TypeCertificate)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateNeedsSigning {
		t.Fatalf("state=%s, want needs_signing", res.State)
	}
}

var _ storage.BlobStore = (*fakeBlobs)(nil)
