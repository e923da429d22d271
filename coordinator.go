package frost

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CoordinatorOption configures a SigningCoordinator.
type CoordinatorOption func(*SigningCoordinator)

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(logger logrus.FieldLogger) CoordinatorOption {
	return func(sc *SigningCoordinator) { sc.logger = logger }
}

// WithCoordinatorAudit sets the audit handler.
func WithCoordinatorAudit(handler AuditEventHandler) CoordinatorOption {
	return func(sc *SigningCoordinator) { sc.audit = handler }
}

// WithVerifyConcurrency bounds the number of shares verified in parallel.
func WithVerifyConcurrency(n int) CoordinatorOption {
	return func(sc *SigningCoordinator) { sc.verifyConcurrency = n }
}

// SigningCoordinator drives one signing request: it collects nonces, opens
// the session and gathers shares until every session signer has delivered a
// valid one. Each request has its own coordinator, so a stalled request never
// blocks another.
type SigningCoordinator struct {
	mu sync.Mutex

	id       string
	jointKey *JointKey

	logger            logrus.FieldLogger
	audit             AuditEventHandler
	verifyConcurrency int

	nonces  map[ParticipantIndex]*PublicNonce
	frozen  bool
	session *SignSession
	shares  map[ParticipantIndex]*SignatureShare

	complete chan struct{}
	finished bool
}

// NewSigningCoordinator creates a coordinator for one request under jointKey.
func NewSigningCoordinator(jointKey *JointKey, opts ...CoordinatorOption) (*SigningCoordinator, error) {
	if err := jointKey.Validate(); err != nil {
		return nil, err
	}
	sc := &SigningCoordinator{
		id:                uuid.NewString(),
		jointKey:          jointKey,
		logger:            logrus.StandardLogger(),
		audit:             &NullAuditHandler{},
		verifyConcurrency: 8,
		nonces:            make(map[ParticipantIndex]*PublicNonce),
		shares:            make(map[ParticipantIndex]*SignatureShare),
		complete:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sc)
	}
	sc.logger = sc.logger.WithField("session", sc.id)
	return sc, nil
}

// ID returns the request id. Signers may use it as the nonce label.
func (sc *SigningCoordinator) ID() string {
	return sc.id
}

// AddNonce records a signer's public nonce. It returns true once at least
// threshold nonces are known.
func (sc *SigningCoordinator) AddNonce(signer ParticipantIndex, nonce *PublicNonce) (bool, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.session != nil {
		return false, ErrInvalidState.WithDetails("session already opened")
	}
	if sc.frozen {
		return false, ErrInvalidState.WithDetails("session nonce already handed out")
	}
	if int(signer) >= sc.jointKey.Participants() {
		return false, ErrInvalidParticipantID.WithContext(ContextSigner, signer)
	}
	if err := nonce.Validate(); err != nil {
		return false, ErrInvalidEncoding.WithContext(ContextSigner, signer).WithCause(err)
	}
	if _, ok := sc.nonces[signer]; ok {
		return false, ErrDuplicateParticipants.WithContext(ContextSigner, signer)
	}
	sc.nonces[signer] = nonce
	return len(sc.nonces) >= sc.jointKey.Threshold, nil
}

// SessionNonce returns the aggregate nonce the requester blinds against.
// Once it has been handed out the nonce set is fixed and AddNonce fails.
func (sc *SigningCoordinator) SessionNonce() (*Point, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	nonce, err := SessionNonce(sc.jointKey, sc.nonces)
	if err != nil {
		return nil, err
	}
	sc.frozen = true
	return nonce, nil
}

// Open starts a plain session over message with the nonces collected so far.
func (sc *SigningCoordinator) Open(message []byte) (*SignSession, error) {
	return sc.open(func() (*SignSession, error) {
		return StartSignSession(sc.jointKey, sc.nonces, message)
	})
}

// OpenBlind starts a session over the requester's blinded message.
func (sc *SigningCoordinator) OpenBlind(blinded *BlindedMessage) (*SignSession, error) {
	return sc.open(func() (*SignSession, error) {
		return StartBlindSignSession(sc.jointKey, sc.nonces, blinded)
	})
}

func (sc *SigningCoordinator) open(start func() (*SignSession, error)) (*SignSession, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.session != nil {
		return nil, ErrInvalidState.WithDetails("session already opened")
	}
	session, err := start()
	if err != nil {
		return nil, err
	}
	sc.session = session

	sc.audit.OnSigning(NewAuditEventBuilder(AuditEventSessionOpened, ReasonSigningRequest).
		WithSession(sc.id).
		WithThreshold(sc.jointKey.Threshold, sc.jointKey.Participants()).
		WithMetadata("blinded", session.Blinded()).
		WithMetadata("signers", session.Signers()).
		Build())
	sc.logger.WithFields(logrus.Fields{
		"signers": session.Signers(),
		"blinded": session.Blinded(),
	}).Debug("signing session opened")
	return session, nil
}

// Session returns the open session, or nil before Open.
func (sc *SigningCoordinator) Session() *SignSession {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.session
}

// AddShares verifies shares concurrently and keeps the valid ones. Invalid
// shares are dropped and their signers returned; a signer whose share was
// rejected may submit again.
func (sc *SigningCoordinator) AddShares(shares ...*SignatureShare) ([]ParticipantIndex, error) {
	sc.mu.Lock()
	session := sc.session
	sc.mu.Unlock()
	if session == nil {
		return nil, ErrInvalidState.WithDetails("session not opened")
	}

	results := make([]error, len(shares))
	var eg errgroup.Group
	eg.SetLimit(sc.verifyConcurrency)
	for i, share := range shares {
		eg.Go(func() error {
			results[i] = session.VerifyShare(share)
			return nil
		})
	}
	_ = eg.Wait()

	sc.mu.Lock()
	defer sc.mu.Unlock()

	var rejected []ParticipantIndex
	for i, share := range shares {
		if err := results[i]; err != nil {
			if share != nil {
				rejected = append(rejected, share.Signer)
			}
			sc.audit.OnError(NewAuditEventBuilder(AuditEventSignatureShareRejected, ReasonProtocolViolation).
				WithSession(sc.id).
				WithError(err).
				Build())
			sc.logger.WithError(err).Warn("dropping signature share")
			continue
		}
		sc.shares[share.Signer] = share
	}

	if !sc.finished && len(sc.shares) == len(session.signers) {
		sc.finished = true
		close(sc.complete)
	}
	return rejected, nil
}

// Missing returns the session signers without a valid share.
func (sc *SigningCoordinator) Missing() []ParticipantIndex {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.missingLocked()
}

func (sc *SigningCoordinator) missingLocked() []ParticipantIndex {
	if sc.session == nil {
		return nil
	}
	var missing []ParticipantIndex
	for _, idx := range sc.session.signers {
		if _, ok := sc.shares[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	return missing
}

// Wait blocks until every signer delivered a valid share and combines them
// into a signature. Only plain sessions can be waited on with Wait.
func (sc *SigningCoordinator) Wait(ctx context.Context) (*Signature, error) {
	session, shares, err := sc.await(ctx)
	if err != nil {
		return nil, err
	}
	sig, err := CombineSignature(session, shares)
	return sig, sc.finish(err)
}

// WaitBlinded is Wait for blind sessions.
func (sc *SigningCoordinator) WaitBlinded(ctx context.Context) (*BlindedSignature, error) {
	session, shares, err := sc.await(ctx)
	if err != nil {
		return nil, err
	}
	sig, err := CombineBlindedSignature(session, shares)
	return sig, sc.finish(err)
}

func (sc *SigningCoordinator) await(ctx context.Context) (*SignSession, []*SignatureShare, error) {
	sc.mu.Lock()
	session := sc.session
	sc.mu.Unlock()
	if session == nil {
		return nil, nil, ErrInvalidState.WithDetails("session not opened")
	}

	select {
	case <-sc.complete:
	case <-ctx.Done():
		sc.mu.Lock()
		missing := sc.missingLocked()
		sc.mu.Unlock()

		err := ErrSessionTimeout.WithDetails("missing shares from %v", missing).WithCause(ctx.Err())
		signingRequests.WithLabelValues("timeout").Inc()
		sc.audit.OnSigning(NewAuditEventBuilder(AuditEventSessionFailed, ReasonTimeout).
			WithSession(sc.id).
			WithBlame(missing...).
			WithError(err).
			Build())
		sc.logger.WithField("missing", missing).Warn("signing request timed out")
		return nil, nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	shares := make([]*SignatureShare, 0, len(sc.shares))
	for _, idx := range session.signers {
		shares = append(shares, sc.shares[idx])
	}
	return session, shares, nil
}

func (sc *SigningCoordinator) finish(err error) error {
	if err != nil {
		signingRequests.WithLabelValues("failed").Inc()
		sc.audit.OnSigning(NewAuditEventBuilder(AuditEventSessionFailed, ReasonSigningRequest).
			WithSession(sc.id).
			WithError(err).
			Build())
		sc.logger.WithError(err).Error("combining signature shares failed")
		return err
	}
	signingRequests.WithLabelValues("success").Inc()
	sc.audit.OnSigning(NewAuditEventBuilder(AuditEventSignatureCombined, ReasonSigningRequest).
		WithSession(sc.id).
		Build())
	sc.logger.Debug("signature combined")
	return nil
}
