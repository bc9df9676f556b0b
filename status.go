package eposprint

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the ASB (automatic status back) bitmask reported by the printer
// with every response.
type Status uint32

const (
	// StatusNoResponse is set when the device did not answer.
	StatusNoResponse Status = 1 << 0
	// StatusPrintSuccess is set when printing completed.
	StatusPrintSuccess Status = 1 << 1
	// StatusDrawerKickOpen reflects the drawer kick-out connector pin 3.
	StatusDrawerKickOpen Status = 1 << 2
	// StatusOffline is set while the printer is offline.
	StatusOffline Status = 1 << 3
	// StatusCoverOpen is set while the roll paper cover is open.
	StatusCoverOpen Status = 1 << 5
	// StatusPaperFeeding is set while the feed switch is feeding paper.
	StatusPaperFeeding Status = 1 << 6
	// StatusWaitingRecovery is set while waiting for online recovery.
	StatusWaitingRecovery Status = 1 << 8
	// StatusPanelSwitch is set while the panel switch is pressed.
	StatusPanelSwitch Status = 1 << 9
	// StatusMechanicalError signals a mechanical fault.
	StatusMechanicalError Status = 1 << 10
	// StatusAutocutterError signals an autocutter fault.
	StatusAutocutterError Status = 1 << 11
	// StatusUnrecoverableError signals a fault that needs a power cycle.
	StatusUnrecoverableError Status = 1 << 13
	// StatusAutoRecoverError signals a fault that clears by itself
	// (head overheat, cover open during printing).
	StatusAutoRecoverError Status = 1 << 14
	// StatusPaperNearEnd is set when the roll paper near-end detector
	// reports low paper.
	StatusPaperNearEnd Status = 1 << 17
	// StatusPaperEnd is set when the roll paper end detector reports no
	// paper.
	StatusPaperEnd Status = 1 << 19
	// StatusBuzzerOn is set while the buzzer sounds (supported models only).
	StatusBuzzerOn Status = 1 << 24
	// StatusSpoolerStopped is set while the print spooler is stopped.
	StatusSpoolerStopped Status = 1 << 31
)

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusNoResponse, "no-response"},
	{StatusPrintSuccess, "print-success"},
	{StatusDrawerKickOpen, "drawer-kick-open"},
	{StatusOffline, "offline"},
	{StatusCoverOpen, "cover-open"},
	{StatusPaperFeeding, "paper-feeding"},
	{StatusWaitingRecovery, "waiting-recovery"},
	{StatusPanelSwitch, "panel-switch"},
	{StatusMechanicalError, "mechanical-error"},
	{StatusAutocutterError, "autocutter-error"},
	{StatusUnrecoverableError, "unrecoverable-error"},
	{StatusAutoRecoverError, "auto-recover-error"},
	{StatusPaperNearEnd, "paper-near-end"},
	{StatusPaperEnd, "paper-end"},
	{StatusBuzzerOn, "buzzer-on"},
	{StatusSpoolerStopped, "spooler-stopped"},
}

// ParseStatus decodes the decimal status attribute of a printer response.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("eposprint: malformed status %q: %w", s, err)
	}
	return Status(v), nil
}

// Online reports whether the printer answered and is not offline.
func (s Status) Online() bool {
	return s&(StatusNoResponse|StatusOffline) == 0
}

// PaperPresent reports whether the roll paper end detector sees paper.
func (s Status) PaperPresent() bool {
	return s&StatusPaperEnd == 0
}

// HasError reports whether any error bit is set.
func (s Status) HasError() bool {
	return s&(StatusMechanicalError|StatusAutocutterError|StatusUnrecoverableError|StatusAutoRecoverError) != 0
}

// OK reports whether the printer is online, has paper and no error bits set.
func (s Status) OK() bool {
	return s.Online() && s.PaperPresent() && !s.HasError() && s&StatusCoverOpen == 0
}

// String lists the names of all set bits.
func (s Status) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, sn := range statusNames {
		if s&sn.bit != 0 {
			parts = append(parts, sn.name)
		}
	}
	if rest := s &^ knownStatusBits(); rest != 0 {
		parts = append(parts, fmt.Sprintf("unknown(%#x)", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

func knownStatusBits() Status {
	var all Status
	for _, sn := range statusNames {
		all |= sn.bit
	}
	return all
}

// printErrorDescriptions maps ePOS result codes to human readable text.
var printErrorDescriptions = map[string]string{
	"EPTR_AUTOMATICAL":   "automatic recovery error",
	"EPTR_BATTERY_LOW":   "battery has run out",
	"EPTR_COVER_OPEN":    "cover open",
	"EPTR_CUTTER":        "autocutter error",
	"EPTR_MECHANICAL":    "mechanical error",
	"EPTR_REC_EMPTY":     "no paper in the roll paper end detector",
	"EPTR_UNRECOVERABLE": "unrecoverable error",
	"SchemaError":        "request document syntax error",
	"DeviceNotFound":     "printer with the requested device id does not exist",
	"PrintSystemError":   "print system error",
	"EX_BADPORT":         "port specification error",
	"EX_TIMEOUT":         "print timeout",
	"EX_SPOOLER":         "print queue is full",
	"JobNotFound":        "requested job does not exist",
	"Printing":           "printing in progress",
}

// PrintError is the job-level failure reported by the printer in an
// otherwise successful SOAP exchange.
type PrintError struct {
	// Code is the vendor result code, for example "EPTR_REC_EMPTY".
	Code string
	// Status is the ASB status accompanying the failure.
	Status Status
}

// Error implements the error interface.
func (e *PrintError) Error() string {
	if desc, ok := printErrorDescriptions[e.Code]; ok {
		return fmt.Sprintf("eposprint: print failed: %s (%s; status %v)", desc, e.Code, e.Status)
	}
	if e.Code == "" {
		return fmt.Sprintf("eposprint: print failed (status %v)", e.Status)
	}
	return fmt.Sprintf("eposprint: print failed: %s (status %v)", e.Code, e.Status)
}
