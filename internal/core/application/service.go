package application

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/brood-labs/broodd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Service is the lifecycle controller: every public operation validates its
// preconditions, talks to the reservation ledger and applies one atomic
// repository mutation. Operations are serialized; there is no in-progress
// state to observe between them.
type Service interface {
	Mint(ctx context.Context, owner string) (*domain.Unit, error)
	Breed(ctx context.Context, owner string, parentA, parentB domain.DNA) (*domain.Unit, error)
	Transfer(ctx context.Context, from, to string, dna domain.DNA) error
	SetPrice(ctx context.Context, owner string, dna domain.DNA, price uint64) error
	Buy(ctx context.Context, buyer string, dna domain.DNA, bid uint64) error

	GetUnit(ctx context.Context, dna domain.DNA) (*domain.Unit, error)
	OwnedUnits(ctx context.Context, owner string) ([]domain.Unit, error)
	CountUnits(ctx context.Context) (uint32, error)

	Stop()
}

type service struct {
	// collaborators
	repoManager ports.RepoManager
	ledger      ports.ReserveLedger
	entropy     ports.EntropySource
	sequencer   ports.Sequencer
	publisher   ports.EventPublisher

	// config, fixed at construction
	unitPrice uint64
	maxOwned  uint32
	maxTotal  uint32

	// serializes lifecycle operations, replacing the single-threaded host
	// the original state machine assumed
	lock sync.Mutex
}

func NewService(
	repoManager ports.RepoManager,
	ledger ports.ReserveLedger,
	entropy ports.EntropySource,
	sequencer ports.Sequencer,
	publisher ports.EventPublisher,
	unitPrice uint64, maxOwned, maxTotal uint32,
) (Service, error) {
	if repoManager == nil || ledger == nil || entropy == nil || sequencer == nil {
		return nil, fmt.Errorf("missing collaborator")
	}
	if unitPrice == 0 {
		return nil, fmt.Errorf("unit price must be greater than 0")
	}
	if maxOwned == 0 || maxTotal == 0 {
		return nil, fmt.Errorf("capacity bounds must be greater than 0")
	}

	return &service{
		repoManager: repoManager,
		ledger:      ledger,
		entropy:     entropy,
		sequencer:   sequencer,
		publisher:   publisher,
		unitPrice:   unitPrice,
		maxOwned:    maxOwned,
		maxTotal:    maxTotal,
	}, nil
}

func (s *service) Mint(ctx context.Context, owner string) (*domain.Unit, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	price := s.unitPrice
	if err := s.checkCanReserve(ctx, owner, price); err != nil {
		return nil, err
	}
	if err := s.checkCounter(ctx); err != nil {
		return nil, err
	}

	dna, err := s.deriveDNA(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotRegistered(ctx, dna); err != nil {
		return nil, err
	}
	if err := s.checkOwnerCapacity(ctx, owner); err != nil {
		return nil, err
	}

	unit := domain.Unit{
		DNA:       dna,
		Price:     price,
		Owner:     owner,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.createUnit(ctx, unit); err != nil {
		return nil, err
	}

	log.WithField("dna", dna).WithField("owner", owner).Debug("minted new unit")

	s.publish(ctx, domain.UnitCreated{Unit: dna, Owner: owner})
	return &unit, nil
}

func (s *service) Breed(
	ctx context.Context, owner string, parentA, parentB domain.DNA,
) (*domain.Unit, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	a, err := s.getUnit(ctx, parentA)
	if err != nil {
		return nil, err
	}
	b, err := s.getUnit(ctx, parentB)
	if err != nil {
		return nil, err
	}
	if a.Owner != owner || b.Owner != owner {
		return nil, domain.ErrNotOwner.New("account %s does not own both parents", owner)
	}
	if parentA == parentB {
		return nil, domain.ErrIdenticalParents.New("cannot breed unit %s with itself", parentA)
	}

	price := s.unitPrice
	if err := s.checkCanReserve(ctx, owner, price); err != nil {
		return nil, err
	}

	// the selector is fresh entropy, not derived from the parents
	selector, err := s.deriveDNA(ctx, owner)
	if err != nil {
		return nil, err
	}
	dna := domain.Crossover(a.DNA, b.DNA, selector)

	if err := s.checkNotRegistered(ctx, dna); err != nil {
		return nil, err
	}
	if err := s.checkCounter(ctx); err != nil {
		return nil, err
	}
	if err := s.checkOwnerCapacity(ctx, owner); err != nil {
		return nil, err
	}

	unit := domain.Unit{
		DNA:       dna,
		Price:     price,
		Owner:     owner,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.createUnit(ctx, unit); err != nil {
		return nil, err
	}

	log.WithField("dna", dna).WithField("owner", owner).
		WithField("parents", []string{parentA.String(), parentB.String()}).
		Debug("bred new unit")

	s.publish(ctx, domain.UnitBred{
		Unit: dna, Owner: owner, ParentA: parentA, ParentB: parentB,
	})
	return &unit, nil
}

func (s *service) Transfer(ctx context.Context, from, to string, dna domain.DNA) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if from == to {
		return domain.ErrTransferToSelf.New("account %s cannot transfer to itself", from)
	}

	unit, err := s.getUnit(ctx, dna)
	if err != nil {
		return err
	}
	if unit.Owner != from {
		return domain.ErrNotOwner.New("account %s does not own unit %s", from, dna)
	}

	// the recipient-side checks and reservation come first so that a failure
	// leaves the sender's ownership untouched
	if err := s.checkCanReserve(ctx, to, unit.Price); err != nil {
		return err
	}
	if err := s.checkOwnerCapacity(ctx, to); err != nil {
		return err
	}
	if err := s.ledger.Reserve(ctx, to, unit.Price); err != nil {
		return err
	}

	if err := s.repoManager.Units().TransferUnit(ctx, dna, from, to); err != nil {
		s.compensate(ctx, func(ctx context.Context) error {
			return s.ledger.Unreserve(ctx, to, unit.Price)
		})
		if domain.ErrUnitNotFound.Is(err) {
			// the unit resolved in the registry but is missing from the
			// sender's index: the two structures disagree
			log.WithError(err).WithField("dna", dna).
				Error("ownership index inconsistent with registry")
		}
		return err
	}

	if err := s.ledger.Unreserve(ctx, from, unit.Price); err != nil {
		log.WithError(err).WithField("account", from).
			Warn("failed to release sender reservation")
	}

	s.publish(ctx, domain.UnitTransferred{From: from, To: to, Unit: dna})
	return nil
}

func (s *service) SetPrice(
	ctx context.Context, owner string, dna domain.DNA, price uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	unit, err := s.getUnit(ctx, dna)
	if err != nil {
		return err
	}
	if unit.Owner != owner {
		return domain.ErrNotOwner.New("account %s does not own unit %s", owner, dna)
	}

	// reservations are not adjusted: they reflect the price at acquisition
	// time, not the current listing
	if err := s.repoManager.Units().SetUnitPrice(ctx, dna, price); err != nil {
		return err
	}

	s.publish(ctx, domain.UnitPriceSet{Unit: dna, Owner: owner, Price: price})
	return nil
}

func (s *service) Buy(ctx context.Context, buyer string, dna domain.DNA, bid uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	unit, err := s.getUnit(ctx, dna)
	if err != nil {
		return err
	}
	seller := unit.Owner
	if buyer == seller {
		return domain.ErrTransferToSelf.New("account %s already owns unit %s", buyer, dna)
	}
	if !unit.IsForSale() {
		return domain.ErrNotForSale.New("unit %s is not listed", dna)
	}
	if bid < unit.Price {
		return domain.ErrBidTooLow.New(
			"bid %d below listed price %d for unit %s", bid, unit.Price, dna,
		)
	}

	// the buyer pays the bid and additionally reserves the listed price
	if bid > math.MaxUint64-unit.Price {
		return domain.ErrInsufficientBalance.New(
			"bid %d plus listed price %d exceeds the representable balance",
			bid, unit.Price,
		)
	}
	if err := s.checkCanReserve(ctx, buyer, bid+unit.Price); err != nil {
		return err
	}
	if err := s.checkOwnerCapacity(ctx, buyer); err != nil {
		return err
	}

	if err := s.ledger.Transfer(ctx, buyer, seller, bid); err != nil {
		return err
	}
	if err := s.ledger.Reserve(ctx, buyer, unit.Price); err != nil {
		s.compensate(ctx, func(ctx context.Context) error {
			return s.ledger.Transfer(ctx, seller, buyer, bid)
		})
		return err
	}

	if err := s.repoManager.Units().TransferUnit(ctx, dna, seller, buyer); err != nil {
		s.compensate(ctx, func(ctx context.Context) error {
			return s.ledger.Unreserve(ctx, buyer, unit.Price)
		})
		s.compensate(ctx, func(ctx context.Context) error {
			return s.ledger.Transfer(ctx, seller, buyer, bid)
		})
		return err
	}

	if err := s.ledger.Unreserve(ctx, seller, unit.Price); err != nil {
		log.WithError(err).WithField("account", seller).
			Warn("failed to release seller reservation")
	}

	s.publish(ctx, domain.UnitSold{Unit: dna, Seller: seller, Buyer: buyer, Price: bid})
	return nil
}

func (s *service) GetUnit(ctx context.Context, dna domain.DNA) (*domain.Unit, error) {
	return s.getUnit(ctx, dna)
}

func (s *service) OwnedUnits(ctx context.Context, owner string) ([]domain.Unit, error) {
	dnas, err := s.repoManager.Units().OwnedUnits(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned units: %w", err)
	}
	units := make([]domain.Unit, 0, len(dnas))
	for _, dna := range dnas {
		unit, err := s.getUnit(ctx, dna)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	return units, nil
}

func (s *service) CountUnits(ctx context.Context) (uint32, error) {
	return s.repoManager.Units().CountUnits(ctx)
}

func (s *service) Stop() {
	if s.publisher != nil {
		// nolint:errcheck
		s.publisher.Close()
	}
	s.repoManager.Close()
}

func (s *service) getUnit(ctx context.Context, dna domain.DNA) (*domain.Unit, error) {
	unit, err := s.repoManager.Units().GetUnit(ctx, dna)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	if unit == nil {
		return nil, domain.ErrUnitNotFound.New("unit %s not found", dna)
	}
	return unit, nil
}

func (s *service) deriveDNA(ctx context.Context, owner string) (domain.DNA, error) {
	seed, err := s.entropy.Seed(ctx)
	if err != nil {
		return domain.DNA{}, fmt.Errorf("failed to get entropy: %w", err)
	}
	return domain.DeriveDNA(seed, owner, s.sequencer.Next()), nil
}

func (s *service) checkCanReserve(ctx context.Context, account string, amount uint64) error {
	ok, err := s.ledger.CanReserve(ctx, account, amount)
	if err != nil {
		return fmt.Errorf("failed to check balance: %w", err)
	}
	if !ok {
		return domain.ErrInsufficientBalance.New(
			"account %s cannot reserve %d", account, amount,
		)
	}
	return nil
}

func (s *service) checkCounter(ctx context.Context) error {
	count, err := s.repoManager.Units().CountUnits(ctx)
	if err != nil {
		return fmt.Errorf("failed to count units: %w", err)
	}
	if count >= s.maxTotal || count == math.MaxUint32 {
		return domain.ErrTotalCapacity.New("registry is full (%d units)", count)
	}
	return nil
}

func (s *service) checkNotRegistered(ctx context.Context, dna domain.DNA) error {
	exists, err := s.repoManager.Units().ContainsUnit(ctx, dna)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if exists {
		return domain.ErrDuplicateUnit.New("dna %s already registered", dna)
	}
	return nil
}

func (s *service) checkOwnerCapacity(ctx context.Context, owner string) error {
	owned, err := s.repoManager.Units().OwnedUnits(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to list owned units: %w", err)
	}
	if uint32(len(owned)) >= s.maxOwned {
		return domain.ErrOwnerCapacity.New(
			"account %s already owns %d units", owner, len(owned),
		)
	}
	return nil
}

// createUnit reserves the mint price and applies the atomic create mutation,
// releasing the reservation if the store rejects it. This pairing replaces
// the all-or-nothing rollback the original host environment provided.
func (s *service) createUnit(ctx context.Context, unit domain.Unit) error {
	if err := s.ledger.Reserve(ctx, unit.Owner, unit.Price); err != nil {
		return err
	}
	if err := s.repoManager.Units().CreateUnit(ctx, unit); err != nil {
		s.compensate(ctx, func(ctx context.Context) error {
			return s.ledger.Unreserve(ctx, unit.Owner, unit.Price)
		})
		return err
	}
	return nil
}

func (s *service) compensate(ctx context.Context, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.WithError(err).Error("failed to compensate ledger after aborted operation")
	}
}

func (s *service) publish(ctx context.Context, events ...domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		log.WithError(err).Warn("failed to publish events")
	}
}
