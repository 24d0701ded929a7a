// Package telecast decodes and encodes the Telecast protocol-buffer
// messages exchanged with the upstream service and with other devices
// on the LoRa network. Only the fields the core actually inspects
// (DeviceID, DeviceType, Message) are modelled; building outbound
// payloads with the full field set is the send subsystem's job and is
// out of scope here (spec §6). Wire encoding follows protobuf's
// tag/varint/length-delimited scheme via protowire directly, since no
// .proto-derived generated code is part of this module.
package telecast
