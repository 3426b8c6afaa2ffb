package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/petitmaker/training-backend/internal/audit"
	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/pdf"
	"github.com/petitmaker/training-backend/internal/storage"
)

var ErrNotEligible = errors.New("learner not eligible")

// Service owns the signing workflow and the resolution chain. Signing and
// PDF generation are two independent side effects; when the second one
// fails or was interrupted, Resolve reports RegenerationRequired instead
// of a broken link, and Regenerate repairs the state.
type Service struct {
	docs     Store
	learners learner.Store
	blobs    storage.BlobStore
	renderer pdf.Renderer
	events   audit.Log
	log      *zap.Logger
}

func NewService(docs Store, learners learner.Store, blobs storage.BlobStore, renderer pdf.Renderer, events audit.Log, log *zap.Logger) *Service {
	if events == nil {
		events = audit.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{docs: docs, learners: learners, blobs: blobs, renderer: renderer, events: events, log: log}
}

// Resolve walks the fallback chain for one signable artifact:
//  1. unsigned -> NeedsSigning
//  2. stored reference tagged as a document PDF -> that URL
//  3. reference is a bare signature -> newest document record for the tuple
//  4. nothing usable -> RegenerationRequired
func (s *Service) Resolve(ctx context.Context, learnerID string, typ Type) (Resolution, error) {
	if !ValidType(typ) {
		return Resolution{}, fmt.Errorf("unknown document type %q", typ)
	}
	p, err := s.learners.GetProfile(ctx, learnerID)
	if err != nil {
		return Resolution{}, err
	}
	if !signedFlag(p, typ) {
		return Resolution{State: StateNeedsSigning}, nil
	}

	ref := sigRef(p, typ)
	if ref.URL != "" && ref.Kind == learner.AssetDocument {
		return Resolution{State: StateResolved, URL: ref.URL}, nil
	}

	// the reference is a bare signature (or missing entirely): look for a
	// PDF rendered in a previous, possibly interrupted, signing run
	rec, err := s.docs.Latest(ctx, learnerID, p.TrainingID, typ)
	switch {
	case err == nil:
		return Resolution{State: StateResolved, URL: rec.FileURL}, nil
	case errors.Is(err, ErrNotFound):
		return Resolution{State: StateRegenerationRequired}, nil
	default:
		return Resolution{}, err
	}
}

// Sign runs the signing critical section: store the signature asset, flip
// the profile flag, then render and persist the PDF. A failure past the
// flag flip leaves a recoverable state, not an error: Resolve will answer
// RegenerationRequired until Regenerate succeeds.
func (s *Service) Sign(ctx context.Context, learnerID string, typ Type, signaturePNG []byte) (Resolution, error) {
	if !ValidType(typ) {
		return Resolution{}, fmt.Errorf("unknown document type %q", typ)
	}
	p, err := s.gate(ctx, learnerID)
	if err != nil {
		return Resolution{}, err
	}

	sigKey := fmt.Sprintf("%s/%s/signature.png", learnerID, typ)
	sigURL, err := s.blobs.Put(storage.BucketSignatures, sigKey, bytes.NewReader(signaturePNG))
	if err != nil {
		return Resolution{}, fmt.Errorf("store signature: %w", err)
	}

	patch := patchFor(typ, learner.SignatureRef{URL: sigURL, Kind: learner.AssetSignature}, true)
	if err := s.learners.UpdateProfile(ctx, learnerID, patch); err != nil {
		return Resolution{}, fmt.Errorf("update profile: %w", err)
	}

	_ = s.events.Append(ctx, audit.Event{
		Type:     audit.TypeDocumentSigned,
		Key:      learnerID,
		DataJSON: audit.Payload(map[string]interface{}{"type": typ, "signature_url": sigURL}),
	})

	res, err := s.generate(ctx, p, typ, sigURL)
	if err != nil {
		s.log.Warn("pdf generation failed after signing, recoverable via regeneration",
			zap.String("learner_id", learnerID), zap.String("type", string(typ)), zap.Error(err))
		return Resolution{State: StateRegenerationRequired}, nil
	}
	return res, nil
}

// Regenerate re-renders the PDF for an already-signed document whose
// rendered copy was lost or never produced.
func (s *Service) Regenerate(ctx context.Context, learnerID string, typ Type) (Resolution, error) {
	if !ValidType(typ) {
		return Resolution{}, fmt.Errorf("unknown document type %q", typ)
	}
	p, err := s.learners.GetProfile(ctx, learnerID)
	if err != nil {
		return Resolution{}, err
	}
	if !signedFlag(p, typ) {
		return Resolution{State: StateNeedsSigning}, nil
	}
	res, err := s.generate(ctx, p, typ, sigRef(p, typ).URL)
	if err != nil {
		return Resolution{}, err
	}
	_ = s.events.Append(ctx, audit.Event{
		Type:     audit.TypeDocumentRegenerated,
		Key:      learnerID,
		DataJSON: audit.Payload(map[string]interface{}{"type": typ, "url": res.URL}),
	})
	return res, nil
}

func (s *Service) generate(ctx context.Context, p learner.Profile, typ Type, signatureURL string) (Resolution, error) {
	var training learner.Training
	if p.TrainingID != "" {
		if t, err := s.learners.GetTraining(ctx, p.TrainingID); err == nil {
			training = t
		}
	}
	pdfBytes, err := s.renderer.Render(ctx, pdf.Request{
		Kind: string(typ),
		Data: map[string]interface{}{
			"learner_id":     p.ID,
			"first_name":     p.FirstName,
			"last_name":      p.LastName,
			"training_id":    p.TrainingID,
			"training_title": training.Title,
			"start_date":     training.StartDate,
			"end_date":       training.EndDate,
			"signature_url":  signatureURL,
		},
	})
	if err != nil {
		return Resolution{}, err
	}

	key := fmt.Sprintf("%s/%s/%d.pdf", p.ID, typ, time.Now().Unix())
	url, err := s.blobs.Put(storage.BucketDocuments, key, bytes.NewReader(pdfBytes))
	if err != nil {
		return Resolution{}, fmt.Errorf("store pdf: %w", err)
	}
	if _, err := s.docs.Insert(ctx, Record{
		LearnerID:  p.ID,
		TrainingID: p.TrainingID,
		Type:       typ,
		FileURL:    url,
	}); err != nil {
		return Resolution{}, fmt.Errorf("record document: %w", err)
	}

	// flip the profile reference from signature asset to rendered PDF
	patch := patchFor(typ, learner.SignatureRef{URL: url, Kind: learner.AssetDocument}, false)
	if err := s.learners.UpdateProfile(ctx, p.ID, patch); err != nil {
		// the record exists, so resolution still succeeds via step 3
		s.log.Warn("profile reference update failed", zap.String("learner_id", p.ID), zap.Error(err))
	}
	return Resolution{State: StateResolved, URL: url}, nil
}

func (s *Service) gate(ctx context.Context, learnerID string) (learner.Profile, error) {
	p, err := s.learners.GetProfile(ctx, learnerID)
	if err != nil {
		return learner.Profile{}, err
	}
	var company *learner.Company
	if p.CompanyID != "" {
		if c, err := s.learners.GetCompany(ctx, p.CompanyID); err == nil {
			company = &c
		}
	}
	if learner.ResolveEligibility(p, company) != learner.EligibilityValid {
		return learner.Profile{}, ErrNotEligible
	}
	return p, nil
}

func signedFlag(p learner.Profile, t Type) bool {
	switch t {
	case TypeAgreement:
		return p.HasSignedAgreement
	case TypeAttendance:
		return p.HasSignedAttendance
	case TypeCertificate:
		return p.HasSignedCertificate
	}
	return false
}

func sigRef(p learner.Profile, t Type) learner.SignatureRef {
	switch t {
	case TypeAgreement:
		return p.Agreement
	case TypeAttendance:
		return p.Attendance
	case TypeCertificate:
		return p.Certificate
	}
	return learner.SignatureRef{}
}

func patchFor(t Type, ref learner.SignatureRef, setSigned bool) learner.Patch {
	var patch learner.Patch
	switch t {
	case TypeAgreement:
		patch.Agreement = &ref
		if setSigned {
			patch.HasSignedAgreement = learner.BoolPtr(true)
		}
	case TypeAttendance:
		patch.Attendance = &ref
		if setSigned {
			patch.HasSignedAttendance = learner.BoolPtr(true)
		}
	case TypeCertificate:
		patch.Certificate = &ref
		if setSigned {
			patch.HasSignedCertificate = learner.BoolPtr(true)
		}
	}
	return patch
}
