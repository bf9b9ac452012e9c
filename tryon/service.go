// Package tryon runs the outfit-generation pipeline: authenticate, validate,
// call the provider, rehost the result and record it in the ledger.
package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/ledger"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/providers"
	"github.com/raushankrgupta/fitly-tryon/storage"
	"github.com/raushankrgupta/fitly-tryon/telemetry"
	"github.com/raushankrgupta/fitly-tryon/uploads"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// SuccessMessage accompanies every successful response.
const SuccessMessage = "Images processed and saved successfully"

const (
	defaultProviderTimeout = 2 * time.Minute
	defaultFetchTimeout    = 30 * time.Second
	defaultPersistTimeout  = 10 * time.Second

	// maxResultPathAttempts bounds the -<n> suffixes tried on a same-millisecond collision.
	maxResultPathAttempts = 5
)

// ResultFetcher downloads the provider's result.
type ResultFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Deps are the collaborators of a Service. Zero timeouts take the defaults.
type Deps struct {
	Verifier auth.Verifier
	Provider providers.Provider
	Store    storage.ObjectStore
	Ledger   ledger.Store
	Fetcher  ResultFetcher
	Metrics  *telemetry.Metrics

	ProviderTimeout time.Duration
	FetchTimeout    time.Duration
	PersistTimeout  time.Duration
}

// Service is the Try-On Invocation Service. It holds no per-invocation state
// and is safe for concurrent use.
type Service struct {
	verifier auth.Verifier
	provider providers.Provider
	store    storage.ObjectStore
	ledger   ledger.Store
	fetcher  ResultFetcher
	metrics  *telemetry.Metrics
	tracer   trace.Tracer

	providerTimeout time.Duration
	fetchTimeout    time.Duration
	persistTimeout  time.Duration

	// Now is the clock for result paths and record timestamps.
	Now func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		verifier:        d.Verifier,
		provider:        d.Provider,
		store:           d.Store,
		ledger:          d.Ledger,
		fetcher:         d.Fetcher,
		metrics:         d.Metrics,
		tracer:          otel.Tracer("github.com/raushankrgupta/fitly-tryon/tryon"),
		providerTimeout: d.ProviderTimeout,
		fetchTimeout:    d.FetchTimeout,
		persistTimeout:  d.PersistTimeout,
		Now:             time.Now,
	}
	if s.providerTimeout <= 0 {
		s.providerTimeout = defaultProviderTimeout
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.persistTimeout <= 0 {
		s.persistTimeout = defaultPersistTimeout
	}
	return s
}

// invocation carries one call through the state machine.
type invocation struct {
	span   trace.Span
	logger *utils.RequestLog
	state  State
}

func (inv *invocation) advance(state State) {
	inv.state = state
	inv.span.AddEvent(string(state))
	inv.logger.Add("state=" + string(state))
}

func (inv *invocation) fail(err error) error {
	kind := apperrors.KindOf(err)
	inv.span.AddEvent(string(StateFailed), trace.WithAttributes(
		attribute.String("from", string(inv.state)),
		attribute.String("kind", string(kind)),
	))
	inv.span.RecordError(err)
	inv.span.SetStatus(codes.Error, string(kind))
	inv.logger.Addf("state=%s from=%s kind=%s err=%v", StateFailed, inv.state, kind, err)
	inv.state = StateFailed
	return err
}

// Invoke runs one try-on. authorization is the raw Authorization header and
// body the raw request body. Every returned error is an *apperrors.Error.
func (s *Service) Invoke(ctx context.Context, authorization string, body []byte, logger *utils.RequestLog) (*models.TryOnResponse, error) {
	if logger == nil {
		logger = utils.NewRequestLog("tryon")
		defer logger.Flush()
	}
	ctx, span := s.tracer.Start(ctx, "tryon.invoke")
	defer span.End()

	inv := &invocation{span: span, logger: logger}
	inv.advance(StateReceived)

	resp, err := s.run(ctx, inv, authorization, body)
	if err != nil {
		s.metrics.Invocation(ctx, string(apperrors.KindOf(err)))
		return nil, inv.fail(err)
	}
	s.metrics.Invocation(ctx, string(StateCompleted))
	return resp, nil
}

func (s *Service) run(ctx context.Context, inv *invocation, authorization string, body []byte) (*models.TryOnResponse, error) {
	// 1. Authenticate. The caller id comes only from the verified token.
	callerID, err := auth.Authenticate(ctx, s.verifier, authorization)
	if err != nil {
		return nil, err
	}
	inv.span.SetAttributes(attribute.String("user_id", callerID))
	inv.logger.Add("user_id=" + callerID)
	inv.advance(StateAuthenticated)

	// 2. Validate
	req, err := parseRequest(callerID, body)
	if err != nil {
		return nil, err
	}
	inv.advance(StateValidated)

	// 3. Provider
	providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	result, err := s.provider.TryOn(providerCtx, req.PersonImage.PublicURL, req.GarmentImage.PublicURL)
	cancel()
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Wrap(apperrors.KindProviderError, "Provider call failed", err)
		}
		return nil, err
	}
	if result == nil || result.ResultURL == "" {
		return nil, apperrors.New(apperrors.KindProviderError, "No result image URL received from provider")
	}
	inv.logger.Add("provider=" + s.provider.Name())
	inv.advance(StateProviderCalled)

	// 4. Fetch
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	data, contentType, err := s.fetcher.Fetch(fetchCtx, result.ResultURL)
	cancel()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResultFetchFailed, "Failed to download result image", err)
	}
	inv.advance(StateResultFetched)

	// 5. Rehost. Nothing is recorded unless this copy exists.
	ts := s.Now()
	resultPath, err := s.rehost(ctx, callerID, ts, data, contentType)
	if err != nil {
		return nil, err
	}
	resultURL, err := s.store.URL(ctx, resultPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResultStoreFailed, "Failed to get public URL for result", err)
	}
	inv.logger.Add("result_path=" + resultPath)
	inv.advance(StateResultStored)

	// 6. Persist. Failure degrades the ledger but not the response.
	s.persist(ctx, inv, models.OutfitRecord{
		UserID:           callerID,
		PersonImagePath:  req.PersonImage.PublicURL,
		GarmentImagePath: req.GarmentImage.PublicURL,
		ResultImagePath:  resultURL,
		CreatedAt:        ts,
	})

	// 7. Respond
	inv.advance(StateCompleted)
	return &models.TryOnResponse{
		ResultImage: resultURL,
		Message:     SuccessMessage,
	}, nil
}

// rehost stores the result under a fresh path. Invocations by the same caller
// in the same millisecond take the next free -<n> suffix; stored objects are
// never overwritten.
func (s *Service) rehost(ctx context.Context, callerID string, ts time.Time, data []byte, contentType string) (string, error) {
	var err error
	for i := 0; i < maxResultPathAttempts; i++ {
		path := uploads.ResultPath(callerID, ts, i, contentType)
		err = s.store.Put(ctx, path, data, contentType)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, storage.ErrExists) {
			return "", apperrors.Wrap(apperrors.KindResultStoreFailed, "Failed to upload result image", err)
		}
	}
	return "", apperrors.Wrap(apperrors.KindResultStoreFailed, "Result path already taken, retry", err)
}

// persist writes the record on a context detached from the request so a
// client disconnect after rehost does not drop the write.
func (s *Service) persist(ctx context.Context, inv *invocation, rec models.OutfitRecord) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	created, err := s.ledger.Insert(persistCtx, rec)
	if err != nil {
		perr := apperrors.Wrap(apperrors.KindPersistenceFailed, "Failed to record outfit", err)
		inv.span.AddEvent("ledger_write_failed", trace.WithAttributes(attribute.String("error", perr.Error())))
		inv.logger.Addf("ledger_write_failed kind=%s user_id=%s result=%s err=%v", perr.Kind, rec.UserID, rec.ResultImagePath, perr)
		s.metrics.LedgerWriteFailed(ctx)
		return
	}
	if !created {
		inv.logger.Add("ledger_duplicate: triple already recorded")
		s.metrics.LedgerDuplicate(ctx)
	}
	inv.advance(StateRecordPersisted)
}

// parseRequest validates the body and builds the ephemeral request.
func parseRequest(callerID string, body []byte) (*models.TryOnRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperrors.New(apperrors.KindBadRequest, "Missing request body")
	}

	var payload models.TryOnBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.WithDetails(apperrors.KindBadRequest, "Invalid JSON in request body", err.Error())
	}
	payload.Image1 = strings.TrimSpace(payload.Image1)
	payload.Image2 = strings.TrimSpace(payload.Image2)
	if payload.Image1 == "" || payload.Image2 == "" {
		return nil, apperrors.New(apperrors.KindMissingImages, "Both image URLs are required")
	}
	for _, raw := range []string{payload.Image1, payload.Image2} {
		if !isRetrievableURL(raw) {
			return nil, apperrors.WithDetails(apperrors.KindBadRequest, "Image URLs must be absolute http(s) URLs", raw)
		}
	}

	return &models.TryOnRequest{
		CallerID:     callerID,
		PersonImage:  models.AssetReference{PublicURL: payload.Image1},
		GarmentImage: models.AssetReference{PublicURL: payload.Image2},
	}, nil
}

func isRetrievableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
