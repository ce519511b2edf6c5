package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleWire/internal/config"
	"oracleWire/internal/model"
	"oracleWire/internal/oracle"
)

type callOutput struct {
	Method    string `json:"method"`
	RequestID string `json:"request_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Calldata  string `json:"calldata"`
}

func runRequest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRequest(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	variant, err := oracle.ParseRequestVariant(cfg.Variant)
	if err != nil {
		return err
	}
	specID, err := hexutil.Decode(cfg.SpecID)
	if err != nil {
		return fmt.Errorf("spec id: %w", err)
	}
	if !common.IsHexAddress(cfg.CallbackAddress) {
		return fmt.Errorf("invalid callback address: %s", cfg.CallbackAddress)
	}
	callbackFunc, err := hexutil.Decode(cfg.CallbackFunction)
	if err != nil {
		return fmt.Errorf("callback function: %w", err)
	}
	nonce, ok := math.ParseBig256(cfg.Nonce)
	if !ok {
		return fmt.Errorf("invalid nonce: %s", cfg.Nonce)
	}
	var data []byte
	if cfg.Data != "" {
		if data, err = hexutil.Decode(cfg.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	var dataVersion *big.Int
	if cfg.DataVersion > 0 {
		dataVersion = new(big.Int).SetUint64(cfg.DataVersion)
	}

	calldata, err := oracle.EncodeOracleRequest(variant, specID, common.HexToAddress(cfg.CallbackAddress), callbackFunc, nonce, data, dataVersion)
	if err != nil {
		return err
	}

	logger.Debug("request encoded", zap.String("method", variant.Method()), zap.Int("bytes", len(calldata)))
	return writeJSON("", callOutput{Method: variant.Method(), Calldata: hexutil.Encode(calldata)})
}

func runFulfill(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFulfill(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Request == "" {
		return fmt.Errorf("request path is required")
	}
	record, err := readRunRequestRecord(cfg.Request)
	if err != nil {
		return err
	}
	req, err := oracle.RunRequestFromRecord(record)
	if err != nil {
		return err
	}

	out, err := buildFulfillCall(req, cfg)
	if err != nil {
		return err
	}

	logger.Debug("fulfillment built", zap.String("method", out.Method), zap.String("request_id", out.RequestID))
	return writeJSON("", out)
}

func buildFulfillCall(req *model.RunRequest, cfg config.FulfillConfig) (callOutput, error) {
	out := callOutput{RequestID: hexutil.Encode(req.RequestID[:]), Mode: req.Mode.String()}

	if cfg.Cancel {
		params, err := oracle.ConvertCancelParams(req, nil)
		if err != nil {
			return out, err
		}
		calldata, err := params.Pack()
		if err != nil {
			return out, err
		}
		out.Method = "cancelOracleRequest"
		out.Calldata = hexutil.Encode(calldata)
		return out, nil
	}

	var (
		params *oracle.FulfillParams
		err    error
	)
	if req.Mode == model.FulfillmentMulti {
		values, perr := oracle.ParseResponseValues(cfg.ResponseTypes, cfg.ResponseValues)
		if perr != nil {
			return out, perr
		}
		params, err = oracle.ConvertFulfill2Params(req, cfg.ResponseTypes, values, nil)
	} else {
		params, err = oracle.ConvertFulfillParams(req, cfg.Response, nil)
	}
	if err != nil {
		return out, err
	}

	calldata, err := params.Pack()
	if err != nil {
		return out, err
	}
	out.Method = params.Method()
	out.Calldata = hexutil.Encode(calldata)
	return out, nil
}

// readRunRequestRecord reads a single JSON record, or the first line of a JSONL file.
func readRunRequestRecord(path string) (model.RunRequestRecord, error) {
	var record model.RunRequestRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return record, fmt.Errorf("read request: %w", err)
	}
	data = bytes.TrimSpace(data)
	if err := json.Unmarshal(data, &record); err == nil {
		return record, nil
	}
	record = model.RunRequestRecord{}
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if err := json.Unmarshal(line, &record); err != nil {
		return record, fmt.Errorf("parse request: %w", err)
	}
	return record, nil
}
