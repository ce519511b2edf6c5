package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleWire/internal/agreement"
	"oracleWire/internal/chain"
	"oracleWire/internal/config"
	"oracleWire/internal/signature"
)

var _ agreement.ContractCaller = (*chain.Client)(nil)

type agreementOutput struct {
	SAID              string          `json:"said"`
	Agreement         agreementFields `json:"agreement"`
	EncodedAgreement  string          `json:"encoded_agreement"`
	OracleSignatures  signaturesJSON  `json:"oracle_signatures"`
	EncodedSignatures string          `json:"encoded_signatures"`
	Calldata          string          `json:"calldata"`
}

type agreementFields struct {
	Payment                string   `json:"payment"`
	Expiration             string   `json:"expiration"`
	EndAt                  string   `json:"end_at"`
	Oracles                []string `json:"oracles"`
	RequestDigest          string   `json:"request_digest"`
	Aggregator             string   `json:"aggregator"`
	AggInitiateJobSelector string   `json:"agg_initiate_job_selector"`
	AggFulfillSelector     string   `json:"agg_fulfill_selector"`
}

type signaturesJSON struct {
	Vs []int    `json:"vs"`
	Rs []string `json:"rs"`
	Ss []string `json:"ss"`
}

func runAgreement(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAgreement(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := agreement.FromConfig(cfg)
	if err != nil {
		return err
	}
	keys, err := keySource(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params, err := agreement.InitiateSAParams(ctx, keys, cfg.SignTimeout, opts...)
	if err != nil {
		return err
	}
	calldata, err := params.Pack()
	if err != nil {
		return err
	}

	logger.Info("agreement signed",
		zap.String("said", params.SAID.Hex()),
		zap.Int("oracles", len(params.Agreement.Oracles)),
	)

	if cfg.Coordinator != "" {
		if err := checkCoordinator(ctx, cfg, params.SAID, logger); err != nil {
			return err
		}
	}

	out := agreementOutput{
		SAID:              params.SAID.Hex(),
		Agreement:         agreementJSON(params),
		EncodedAgreement:  hexutil.Encode(params.EncodedAgreement),
		OracleSignatures:  signaturesToJSON(params),
		EncodedSignatures: hexutil.Encode(params.EncodedSignatures),
		Calldata:          hexutil.Encode(calldata),
	}
	return writeJSON(cfg.Out, out)
}

func keySource(cfg config.AgreementConfig) (signature.KeySource, error) {
	if cfg.KeystoreDir != "" {
		return signature.OpenKeystore(cfg.KeystoreDir, cfg.Password, cfg.LightScrypt)
	}
	if len(cfg.PrivateKeys) == 0 {
		return nil, fmt.Errorf("keystore or private keys are required")
	}
	signers := make([]signature.Signer, 0, len(cfg.PrivateKeys))
	for _, raw := range cfg.PrivateKeys {
		signer, err := signature.KeySignerFromHex(raw)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signature.NewKeys(signers...), nil
}

func checkCoordinator(ctx context.Context, cfg config.AgreementConfig, said common.Hash, logger *zap.Logger) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required with a coordinator")
	}
	if !common.IsHexAddress(cfg.Coordinator) {
		return fmt.Errorf("invalid coordinator address: %s", cfg.Coordinator)
	}
	coordinator := common.HexToAddress(cfg.Coordinator)

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	deployed, err := client.HasCode(ctx, coordinator)
	if err != nil {
		return fmt.Errorf("coordinator code: %w", err)
	}
	if !deployed {
		return fmt.Errorf("no contract at coordinator %s", coordinator.Hex())
	}

	rec, err := agreement.Fetch(ctx, client, coordinator, said)
	if err != nil {
		return err
	}
	if err := agreement.AssertServiceAgreementEmpty(rec); err != nil {
		if cfg.AssertEmpty {
			return err
		}
		logger.Warn("agreement already initiated", zap.String("said", said.Hex()), zap.Error(err))
		return nil
	}
	logger.Info("agreement not yet initiated", zap.String("coordinator", coordinator.Hex()))
	return nil
}

func agreementJSON(params *agreement.InitiateParams) agreementFields {
	sa := params.Agreement
	oracles := make([]string, 0, len(sa.Oracles))
	for _, oracle := range sa.Oracles {
		oracles = append(oracles, oracle.Hex())
	}
	return agreementFields{
		Payment:                bigString(sa.Payment),
		Expiration:             bigString(sa.Expiration),
		EndAt:                  bigString(sa.EndAt),
		Oracles:                oracles,
		RequestDigest:          hexutil.Encode(sa.RequestDigest[:]),
		Aggregator:             sa.Aggregator.Hex(),
		AggInitiateJobSelector: hexutil.Encode(sa.AggInitiateJobSelector[:]),
		AggFulfillSelector:     hexutil.Encode(sa.AggFulfillSelector[:]),
	}
}

func signaturesToJSON(params *agreement.InitiateParams) signaturesJSON {
	sigs := params.Signatures
	out := signaturesJSON{
		Vs: make([]int, 0, sigs.Len()),
		Rs: make([]string, 0, sigs.Len()),
		Ss: make([]string, 0, sigs.Len()),
	}
	for i, v := range sigs.Vs {
		out.Vs = append(out.Vs, int(v))
		out.Rs = append(out.Rs, hexutil.Encode(sigs.Rs[i][:]))
		out.Ss = append(out.Ss, hexutil.Encode(sigs.Ss[i][:]))
	}
	return out
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

// writeJSON writes value as indented JSON to path, or stdout when path is empty.
func writeJSON(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
