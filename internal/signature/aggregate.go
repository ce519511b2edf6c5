package signature

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/sync/errgroup"

	"oracleWire/internal/model"
)

var (
	signaturesArgs     abi.Arguments
	signaturesArgsOnce sync.Once
	signaturesArgsErr  error
)

func oracleSignaturesArguments() (abi.Arguments, error) {
	signaturesArgsOnce.Do(func() {
		var args abi.Arguments
		for _, name := range []string{"uint8[]", "bytes32[]", "bytes32[]"} {
			typ, err := abi.NewType(name, "", nil)
			if err != nil {
				signaturesArgsErr = err
				return
			}
			args = append(args, abi.Argument{Type: typ})
		}
		signaturesArgs = args
	})
	return signaturesArgs, signaturesArgsErr
}

// SignAll personal-signs message with every signer concurrently.
// Results are placed by signer index, never by completion order. A positive
// timeout bounds each key operation; the first failure cancels the rest.
func SignAll(ctx context.Context, message []byte, signers []Signer, timeout time.Duration) ([]model.Signature, error) {
	out := make([]model.Signature, len(signers))
	g, gctx := errgroup.WithContext(ctx)
	for i, signer := range signers {
		i, signer := i, signer
		g.Go(func() error {
			sctx := gctx
			if timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, timeout)
				defer cancel()
			}
			sig, err := PersonalSign(sctx, message, signer)
			if err != nil {
				return err
			}
			out[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Combine transposes signatures into parallel arrays, preserving order.
// It does no validation; the on-chain verifier owns that.
func Combine(sigs []model.Signature) model.OracleSignatures {
	combined := model.OracleSignatures{
		Vs: make([]uint8, 0, len(sigs)),
		Rs: make([][32]byte, 0, len(sigs)),
		Ss: make([][32]byte, 0, len(sigs)),
	}
	for _, sig := range sigs {
		combined.Vs = append(combined.Vs, sig.V)
		combined.Rs = append(combined.Rs, sig.R)
		combined.Ss = append(combined.Ss, sig.S)
	}
	return combined
}

// Encode ABI encodes (uint8[] vs, bytes32[] rs, bytes32[] ss).
func Encode(sigs model.OracleSignatures) ([]byte, error) {
	if len(sigs.Rs) != len(sigs.Vs) || len(sigs.Ss) != len(sigs.Vs) {
		return nil, &model.ValidationError{
			Field:  "oracleSignatures",
			Reason: fmt.Sprintf("length mismatch vs=%d rs=%d ss=%d", len(sigs.Vs), len(sigs.Rs), len(sigs.Ss)),
		}
	}

	args, err := oracleSignaturesArguments()
	if err != nil {
		return nil, fmt.Errorf("build signature arguments: %w", err)
	}

	vs := sigs.Vs
	if vs == nil {
		vs = []uint8{}
	}
	rs := sigs.Rs
	if rs == nil {
		rs = [][32]byte{}
	}
	ss := sigs.Ss
	if ss == nil {
		ss = [][32]byte{}
	}

	out, err := args.Pack(vs, rs, ss)
	if err != nil {
		return nil, fmt.Errorf("pack oracle signatures: %w", err)
	}
	return out, nil
}

// Decode parses the output of Encode.
func Decode(data []byte) (model.OracleSignatures, error) {
	args, err := oracleSignaturesArguments()
	if err != nil {
		return model.OracleSignatures{}, fmt.Errorf("build signature arguments: %w", err)
	}

	values, err := args.Unpack(data)
	if err != nil {
		return model.OracleSignatures{}, &model.DecodeError{Reason: "unpack oracle signatures", Err: err}
	}
	if len(values) != 3 {
		return model.OracleSignatures{}, &model.DecodeError{Reason: fmt.Sprintf("unexpected signature values: %d", len(values))}
	}

	vs, okV := values[0].([]uint8)
	rs, okR := values[1].([][32]byte)
	ss, okS := values[2].([][32]byte)
	if !okV || !okR || !okS {
		return model.OracleSignatures{}, &model.DecodeError{
			Reason: fmt.Sprintf("unsupported signature types %T %T %T", values[0], values[1], values[2]),
		}
	}
	if len(rs) != len(vs) || len(ss) != len(vs) {
		return model.OracleSignatures{}, &model.DecodeError{Reason: "signature arrays differ in length"}
	}
	return model.OracleSignatures{Vs: vs, Rs: rs, Ss: ss}, nil
}
