package ble

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"

	"tpms-gateway/internal/utils"
)

// Match is a single advertisement that passed the Filter.
type Match struct {
	Address   string
	RSSI      int16
	LocalName string
	CompanyID uint16
	Data      []byte
	SeenAt    time.Time
}

// Payload returns the manufacturer-specific AD payload as it was on air:
// the company ID (little-endian) followed by the data. The TPMS decoder
// only looks at the trailing bytes, so the company ID is harmless.
func (m Match) Payload() []byte {
	out := make([]byte, 2, 2+len(m.Data))
	binary.LittleEndian.PutUint16(out, m.CompanyID)
	return append(out, m.Data...)
}

type Filter struct {
	LocalName            string
	CompanyID            uint16 // 0 matches any company
	ManufacturerDataPref []byte
	MinDataLen           int
}

// Accept reports whether an advertisement with the given name and
// manufacturer element passes the filter.
func (f Filter) Accept(localName string, companyID uint16, data []byte) bool {
	if f.LocalName != "" && localName != f.LocalName {
		return false
	}
	if f.CompanyID != 0 && companyID != f.CompanyID {
		return false
	}
	if len(data) < f.MinDataLen {
		return false
	}
	return bytes.HasPrefix(data, f.ManufacturerDataPref)
}

// IsOpen reports whether f accepts advertisements from any device, i.e. it
// names no local name, company or data prefix.
func (f Filter) IsOpen() bool {
	return f.LocalName == "" && f.CompanyID == 0 && len(f.ManufacturerDataPref) == 0
}

// dispatch hands the first manufacturer element of one advertisement that
// passes filter to onMatch.
func dispatch(filter Filter, addr string, rssi int16, name string, elems []bluetooth.ManufacturerDataElement, onMatch func(Match)) {
	for _, md := range elems {
		if !filter.Accept(name, md.CompanyID, md.Data) {
			continue
		}
		if onMatch != nil {
			onMatch(Match{
				Address:   addr,
				RSSI:      rssi,
				LocalName: name,
				CompanyID: md.CompanyID,
				Data:      append([]byte(nil), md.Data...),
				SeenAt:    time.Now(),
			})
		}
		return
	}
}

type Options struct {
	Adapter string // "hci0" by default
	Filter  Filter
}

// Listener wraps BlueZ scanning with context cancellation.
type Listener struct {
	adapter *bluetooth.Adapter
	opts    Options
	logger  *slog.Logger
}

func NewListener(opts Options, logger *slog.Logger) *Listener {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Listener{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
		logger:  logger,
	}
}

// Run enables the adapter and scans until ctx is cancelled, calling onMatch
// from the scan goroutine for every accepted advertisement.
func (l *Listener) Run(ctx context.Context, onMatch func(Match)) error {
	l.logger.Info("ble: enabling adapter", "adapter", l.opts.Adapter)
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", l.opts.Adapter, err)
	}
	l.logger.Info("ble: adapter enabled", "adapter", l.opts.Adapter)

	go func() {
		<-ctx.Done()
		_ = l.adapter.StopScan()
	}()

	l.logger.Info("ble: scanning started",
		"filter_name", l.opts.Filter.LocalName,
		"filter_company", "0x"+utils.Hex4(l.opts.Filter.CompanyID),
		"filter_prefix", fmt.Sprintf("% X", l.opts.Filter.ManufacturerDataPref),
	)

	// adapter.Scan blocks until StopScan() or error.
	err := l.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		dispatch(l.opts.Filter, r.Address.String(), r.RSSI, r.LocalName(), r.ManufacturerData(), onMatch)
	})

	// If ctx canceled, treat as clean shutdown.
	if ctx.Err() != nil {
		l.logger.Info("ble: scanning stopped (context canceled)")
		return nil
	}

	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}

	l.logger.Info("ble: scanning stopped")
	return nil
}
