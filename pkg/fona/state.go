package fona

import "github.com/chegejames/ttnode-supervisor/pkg/transport"

// State enumerates the Fona FSM's device-specific states, continuing
// from transport.FirstDeviceState per the shared contract (spec §4.2).
// States before stateInitCompleted are a one-way bring-up ladder (spec
// §4.3); states from stateSendUDPPrompt on are the send pipeline, and
// the stateDFU* block is the firmware-over-cellular subflow.
type State = transport.State

const (
	stateDisableFlowControl State = transport.FirstDeviceState + iota
	stateResetWaitStart
	stateResetSettle
	stateEchoOff
	stateGPSStart
	stateGPSInfo
	stateSIMCheck
	stateCarrierSearch
	stateICCID
	stateDataStackCGSOCKCONT
	stateDataStackCSOCKSETPN
	stateDataStackCIPMODE
	stateDataStackNetOpen
	stateDataStackCDNSGIP
	stateDataStackCIPOpen
	stateDataStackCHTTPSStart
	stateInitCompleted

	stateSendUDPPrompt
	stateSendHTTPOpenReply
	stateSendHTTPPrompt
	stateSendHTTPSendReply
	stateSendHTTPRecvEvent
	stateSendHTTPRecvBody
	stateSendHTTPClose

	stateDFUBegin
	stateDFUFetchReply
	stateDFUCopy
	stateDFUDone

	stateResetRequested
)
