// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrUnknownEvent  = errors.New("unknown event")
)

// ExtendedABI adds the call-side helpers a natively executed contract needs
// on top of the geth ABI: selector dispatch, return packing and log building.
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses [rawABI] and panics if it is malformed. Contracts parse
// their ABI once at package init.
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// MethodFor splits [input] into its method and argument bytes
func (e ExtendedABI) MethodFor(input []byte) (*abi.Method, []byte, error) {
	if len(input) < SelectorLen {
		return nil, nil, ErrShortInput
	}
	method, err := e.MethodById(input[:SelectorLen])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %x", ErrUnknownInput, input[:SelectorLen])
	}
	return method, input[SelectorLen:], nil
}

// UnpackInput decodes the arguments of method [name]. With [strict] set,
// argument data must be a whole number of words.
func (e ExtendedABI) UnpackInput(name string, data []byte, strict bool) ([]interface{}, error) {
	method, ok := e.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	if strict && len(data)%32 != 0 {
		return nil, fmt.Errorf("abi: improperly formatted input: %d bytes", len(data))
	}
	return method.Inputs.Unpack(data)
}

// PackOutput encodes the return values of method [name], without selector
func (e ExtendedABI) PackOutput(name string, results ...interface{}) ([]byte, error) {
	method, ok := e.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return method.Outputs.Pack(results...)
}

// NewLog builds the log [emitter] produces for event [name]. Indexed
// arguments become topics after the event ID; the rest are ABI-packed
// into the data.
func (e ExtendedABI) NewLog(emitter common.Address, name string, args ...interface{}) (*ethtypes.Log, error) {
	event, ok := e.Events[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(args) != len(event.Inputs) {
		return nil, fmt.Errorf("event %s takes %d arguments, got %d", name, len(event.Inputs), len(args))
	}

	log := &ethtypes.Log{Address: emitter}
	if !event.Anonymous {
		log.Topics = append(log.Topics, event.ID)
	}

	var (
		dataArgs abi.Arguments
		dataVals []interface{}
	)
	for i, input := range event.Inputs {
		if !input.Indexed {
			dataArgs = append(dataArgs, input)
			dataVals = append(dataVals, args[i])
			continue
		}
		topic, err := topicOf(args[i])
		if err != nil {
			return nil, fmt.Errorf("event %s argument %s: %w", name, input.Name, err)
		}
		log.Topics = append(log.Topics, topic)
	}

	data, err := dataArgs.Pack(dataVals...)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", name, err)
	}
	log.Data = data
	return log, nil
}

// EmitEvent builds the log for event [name] and appends it to [stateDB]
func (e ExtendedABI) EmitEvent(stateDB StateDB, emitter common.Address, name string, args ...interface{}) error {
	log, err := e.NewLog(emitter, name, args...)
	if err != nil {
		return err
	}
	stateDB.AddLog(log)
	return nil
}

// topicOf encodes an indexed value. Dynamic values are hashed.
func topicOf(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case [32]byte:
		return v, nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type %T", value)
	}
}
