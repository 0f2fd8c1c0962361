// services/subghz/packet.go
package subghz

import (
	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/internal/state"
	"subghz-go/types"
)

// Packet mode uses the radio's FIFO instead of the async engines. The
// operations below require state Idle and a radio with a packet FIFO;
// other radios get errcode.Unsupported.

func (d *Driver) packet(op string) (hw.PacketRadio, error) {
	d.st.Assert(state.Idle)
	p, ok := d.hw.Radio.(hw.PacketRadio)
	if !ok {
		return nil, errcode.Wrap(errcode.Unsupported, op, nil)
	}
	return p, nil
}

func (d *Driver) FlushRx() error {
	p, err := d.packet("subghz.FlushRx")
	if err != nil {
		return err
	}
	if err := p.FlushRx(); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.FlushRx", err)
	}
	return nil
}

func (d *Driver) FlushTx() error {
	p, err := d.packet("subghz.FlushTx")
	if err != nil {
		return err
	}
	if err := p.FlushTx(); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.FlushTx", err)
	}
	return nil
}

// WritePacket queues one packet. It is refused with errcode.TxForbidden
// when the tuned frequency is not permitted.
func (d *Driver) WritePacket(data []byte) error {
	p, err := d.packet("subghz.WritePacket")
	if err != nil {
		return err
	}
	if d.Regulation() != types.RegulationTxRx {
		d.log.Warn("packet refused", "hz", d.Frequency())
		return errcode.Wrap(errcode.TxForbidden, "subghz.WritePacket", nil)
	}
	if err := p.WritePacket(data); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.WritePacket", err)
	}
	return nil
}

// ReadPacket copies the next received packet into buf and returns its
// length, 0 when none is waiting.
func (d *Driver) ReadPacket(buf []byte) (int, error) {
	p, err := d.packet("subghz.ReadPacket")
	if err != nil {
		return 0, err
	}
	n, err := p.ReadPacket(buf)
	if err != nil {
		return 0, errcode.Wrap(errcode.Of(err), "subghz.ReadPacket", err)
	}
	return n, nil
}

// IsRxDataCRCValid reports whether the last received packet passed its
// CRC. A read failure is logged and reported as invalid.
func (d *Driver) IsRxDataCRCValid() bool {
	p, err := d.packet("subghz.IsRxDataCRCValid")
	if err != nil {
		d.log.Warn("crc check", "err", err)
		return false
	}
	ok, err := p.RxCRCOK()
	if err != nil {
		d.log.Error("crc check", "err", err)
		return false
	}
	return ok
}
