// Package lora implements the LoRa/LoRaWAN transport's AT-style bring-up
// and send path against the shared transport.Transport contract. The
// LoRaWAN join/ADR/MAC layer itself is out of core scope (spec §4.4);
// this package models only what the Comm Supervisor depends on.
package lora
