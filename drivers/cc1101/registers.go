package cc1101

// Configuration registers.
const (
	regIOCFG2   = 0x00
	regIOCFG1   = 0x01
	regIOCFG0   = 0x02
	regFIFOTHR  = 0x03
	regSYNC1    = 0x04
	regSYNC0    = 0x05
	regPKTLEN   = 0x06
	regPKTCTRL1 = 0x07
	regPKTCTRL0 = 0x08
	regADDR     = 0x09
	regCHANNR   = 0x0A
	regFSCTRL1  = 0x0B
	regFSCTRL0  = 0x0C
	regFREQ2    = 0x0D
	regFREQ1    = 0x0E
	regFREQ0    = 0x0F
	regMDMCFG4  = 0x10
	regMDMCFG3  = 0x11
	regMDMCFG2  = 0x12
	regMDMCFG1  = 0x13
	regMDMCFG0  = 0x14
	regDEVIATN  = 0x15
	regMCSM2    = 0x16
	regMCSM1    = 0x17
	regMCSM0    = 0x18
	regFOCCFG   = 0x19
	regBSCFG    = 0x1A
	regAGCCTRL2 = 0x1B
	regAGCCTRL1 = 0x1C
	regAGCCTRL0 = 0x1D
	regWORCTRL  = 0x20
	regFREND1   = 0x21
	regFREND0   = 0x22
	regFSCAL3   = 0x23
	regFSCAL2   = 0x24
	regFSCAL1   = 0x25
	regFSCAL0   = 0x26
	regTEST2    = 0x2C
	regTEST1    = 0x2D
	regTEST0    = 0x2E
	regPATABLE  = 0x3E
	regFIFO     = 0x3F
)

// FIFO depth in bytes.
const fifoSize = 64

// Command strobes.
const (
	strobeSRES    = 0x30
	strobeSFSTXON = 0x31
	strobeSCAL    = 0x33
	strobeSRX     = 0x34
	strobeSTX     = 0x35
	strobeSIDLE   = 0x36
	strobeSPWD    = 0x39
	strobeSFRX    = 0x3A
	strobeSFTX    = 0x3B
	strobeSNOP    = 0x3D
)

// Status registers, read with both the read and burst bits set.
const (
	statPARTNUM   = 0x30
	statVERSION   = 0x31
	statLQI       = 0x33
	statRSSI      = 0x34
	statMARCSTATE = 0x35
	statTXBYTES   = 0x3A
	statRXBYTES   = 0x3B
)

// lqiCRCOK is set in LQI when the last packet passed its CRC.
const lqiCRCOK = 0x80

// Header bits.
const (
	flagRead  = 0x80
	flagBurst = 0x40
)

// MARCSTATE values the driver waits for.
const (
	marcIdle = 0x01
	marcRx   = 0x0D
	marcTx   = 0x13
)

// GDOx configuration values.
const (
	iocfgHW            = 0x2F // hardwired to 0
	iocfgHighImpedance = 0x2E
	iocfgAsyncSerial   = 0x0D // serial data output in async mode
	iocfgInvert        = 0x40
)

// Crystal frequency of the reference design.
const defaultXOSC = 26000000
