package agreement

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"oracleWire/internal/model"
)

// DefaultPayment is one LINK in juels.
var DefaultPayment = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DefaultExpiration is the default cancellation window in seconds.
const DefaultExpiration = 300

// Option overrides one field of a service agreement.
type Option func(*model.ServiceAgreement)

// Defaults returns the agreement every Option is applied to.
// It has no oracles, so New fails unless WithOracles is given.
func Defaults() model.ServiceAgreement {
	return model.ServiceAgreement{
		Payment:    new(big.Int).Set(DefaultPayment),
		Expiration: big.NewInt(DefaultExpiration),
		EndAt:      new(big.Int),
	}
}

// WithPayment sets the payment in juels.
func WithPayment(payment *big.Int) Option {
	return func(sa *model.ServiceAgreement) { sa.Payment = payment }
}

// WithExpiration sets the request expiration in seconds.
func WithExpiration(expiration *big.Int) Option {
	return func(sa *model.ServiceAgreement) { sa.Expiration = expiration }
}

// WithEndAt sets the timestamp the agreement ends at.
func WithEndAt(endAt *big.Int) Option {
	return func(sa *model.ServiceAgreement) { sa.EndAt = endAt }
}

// WithOracles sets the oracle set. Order is kept: it changes the SAID.
func WithOracles(oracles ...common.Address) Option {
	return func(sa *model.ServiceAgreement) {
		sa.Oracles = append([]common.Address(nil), oracles...)
	}
}

// WithRequestDigest sets the digest of the job spec the oracles agree to.
func WithRequestDigest(digest [32]byte) Option {
	return func(sa *model.ServiceAgreement) { sa.RequestDigest = digest }
}

// WithAggregator sets the contract that aggregates oracle answers.
func WithAggregator(aggregator common.Address) Option {
	return func(sa *model.ServiceAgreement) { sa.Aggregator = aggregator }
}

// WithAggInitiateJobSelector sets the aggregator's initiateJob selector.
func WithAggInitiateJobSelector(selector [4]byte) Option {
	return func(sa *model.ServiceAgreement) { sa.AggInitiateJobSelector = selector }
}

// WithAggFulfillSelector sets the aggregator's fulfill selector.
func WithAggFulfillSelector(selector [4]byte) Option {
	return func(sa *model.ServiceAgreement) { sa.AggFulfillSelector = selector }
}

// New applies opts over Defaults and validates the result.
func New(opts ...Option) (model.ServiceAgreement, error) {
	sa := Defaults()
	for _, opt := range opts {
		if opt != nil {
			opt(&sa)
		}
	}
	if err := validate(sa); err != nil {
		return model.ServiceAgreement{}, err
	}
	return sa, nil
}

func validate(sa model.ServiceAgreement) error {
	if len(sa.Oracles) == 0 {
		return &model.ValidationError{Field: "oracles", Reason: "at least one oracle is required"}
	}
	for _, field := range []struct {
		name  string
		value *big.Int
	}{
		{"payment", sa.Payment},
		{"expiration", sa.Expiration},
		{"endAt", sa.EndAt},
	} {
		if field.value == nil {
			continue
		}
		if field.value.Sign() < 0 || field.value.BitLen() > 256 {
			return &model.ValidationError{Field: field.name, Reason: "must fit in uint256"}
		}
	}
	return nil
}

// Encode ABI encodes sa as (payment, expiration, endAt, oracles, requestDigest,
// aggregator, aggInitiateJobSelector, aggFulfillSelector).
func Encode(sa model.ServiceAgreement) ([]byte, error) {
	if err := validate(sa); err != nil {
		return nil, err
	}
	args, err := agreementArguments()
	if err != nil {
		return nil, fmt.Errorf("build agreement arguments: %w", err)
	}
	out, err := args.Pack(
		orZero(sa.Payment),
		orZero(sa.Expiration),
		orZero(sa.EndAt),
		sa.Oracles,
		sa.RequestDigest,
		sa.Aggregator,
		sa.AggInitiateJobSelector,
		sa.AggFulfillSelector,
	)
	if err != nil {
		return nil, fmt.Errorf("pack service agreement: %w", err)
	}
	return out, nil
}

// GenerateSAID returns keccak256 of the encoded agreement.
func GenerateSAID(sa model.ServiceAgreement) (common.Hash, error) {
	encoded, err := Encode(sa)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// AssertServiceAgreementEmpty reports every non-zero field among payment,
// expiration, endAt and requestDigest.
func AssertServiceAgreementEmpty(rec model.OnChainServiceAgreement) error {
	var fields []string
	if rec.Payment != nil && rec.Payment.Sign() != 0 {
		fields = append(fields, "payment")
	}
	if rec.Expiration != nil && rec.Expiration.Sign() != 0 {
		fields = append(fields, "expiration")
	}
	if rec.EndAt != nil && rec.EndAt.Sign() != 0 {
		fields = append(fields, "endAt")
	}
	if rec.RequestDigest != ([32]byte{}) {
		fields = append(fields, "requestDigest")
	}
	if len(fields) == 0 {
		return nil
	}
	return &model.ValidationError{
		Field:  strings.Join(fields, ","),
		Reason: "service agreement already exists",
	}
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
