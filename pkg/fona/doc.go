// Package fona implements the cellular transport's AT-command state
// machine against a SimCom SIM5320-class modem: hardware bring-up,
// carrier search, ICCID-to-APN resolution, the UDP/HTTP send pipeline,
// and the DFU (firmware-over-cellular) subflow. This is the largest
// single transport (spec §2, ~45% of core line share, Fona-dominant).
package fona
