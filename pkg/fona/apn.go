package fona

import "strings"

// iccidAPN maps a SIM ICCID's 6-digit issuer-identifier prefix to the
// APN that must be used to bring up the data stack on that carrier.
// https://en.wikipedia.org/wiki/Subscriber_identity_module
var iccidAPN = map[string]string{
	"890126": "wireless.twilio.com", // Twilio US
	"891030": "openroamer.com",      // Soracom Global
	"890117": "m2m.com.attz",        // AT&T IoT US
}

// APNForICCID returns the APN associated with iccid's issuer prefix, or
// "" if the prefix is unrecognized and the caller should fall back to
// the APN configured in persistent storage.
func APNForICCID(iccid string) string {
	for prefix, apn := range iccidAPN {
		if strings.HasPrefix(iccid, prefix) {
			return apn
		}
	}
	return ""
}
