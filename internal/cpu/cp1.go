package cpu

import "math"

// cp1Type selects which of CP1's three addressable spaces an instruction
// reaches: a 32-bit float register (paired two-per-slot unless FR is set), a
// 64-bit double register, or a control register.
type cp1Type int

const (
	cp1Type32Bit cp1Type = iota
	cp1Type64Bit
	cp1TypeCtrl
)

func (c *CPU) resetCP1() {
	c.fullMode = false
	for i := range c.fpRegs {
		c.fpRegs[i] = 0
	}
	c.fpStatus = 0
}

func (c *CPU) setFPUMode(full bool) { c.fullMode = full }

// ReadCP1 reads a CP1 register; see cp1Type for which space index selects.
func (c *CPU) ReadCP1(t cp1Type, index uint32) uint64 {
	switch t {
	case cp1Type32Bit:
		return uint64(c.fpRead32(index))
	case cp1Type64Bit:
		return c.fpRegs[index]
	default:
		switch index {
		case 31:
			return uint64(c.fpStatus)
		default:
			c.log.Warnw("read from unknown CP1 control register", "index", index)
			return 0
		}
	}
}

// WriteCP1 writes a CP1 register; see cp1Type for which space index selects.
func (c *CPU) WriteCP1(t cp1Type, index uint32, value uint64) {
	switch t {
	case cp1Type32Bit:
		c.fpWrite32(index, uint32(value))
	case cp1Type64Bit:
		c.fpRegs[index] = value
	default:
		switch index {
		case 31:
			c.fpStatus = uint32(value) & 0x183FFFF
			if bits := uint32(value) & 0x1000F83; bits != 0 {
				c.log.Warnw("unimplemented CP1 status bits set", "bits", bits)
			}
		default:
			c.log.Warnw("write to unknown CP1 control register", "index", index)
		}
	}
}

func (c *CPU) fpRead32(index uint32) uint32 {
	if c.fullMode {
		return uint32(c.fpRegs[index])
	}
	slot := c.fpRegs[index&^1]
	if index&1 != 0 {
		return uint32(slot >> 32)
	}
	return uint32(slot)
}

func (c *CPU) fpWrite32(index uint32, value uint32) {
	if c.fullMode {
		c.fpRegs[index] = (c.fpRegs[index] &^ 0xFFFFFFFF) | uint64(value)
		return
	}
	base := index &^ 1
	if index&1 != 0 {
		c.fpRegs[base] = (c.fpRegs[base] & 0xFFFFFFFF) | (uint64(value) << 32)
	} else {
		c.fpRegs[base] = (c.fpRegs[base] &^ 0xFFFFFFFF) | uint64(value)
	}
}

func (c *CPU) fpFloat(index uint32) float32      { return math.Float32frombits(c.fpRead32(index)) }
func (c *CPU) setFPFloat(index uint32, v float32) { c.fpWrite32(index, math.Float32bits(v)) }
func (c *CPU) fpDouble(index uint32) float64      { return math.Float64frombits(c.fpRegs[index]) }
func (c *CPU) setFPDouble(index uint32, v float64) { c.fpRegs[index] = math.Float64bits(v) }

func fpFields(opcode uint32) (fd, fs, ft uint32) {
	return (opcode >> 6) & 0x1F, (opcode >> 11) & 0x1F, (opcode >> 16) & 0x1F
}

func (c *CPU) addS(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPFloat(fd, c.fpFloat(fs)+c.fpFloat(ft))
}

func (c *CPU) addD(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPDouble(fd, c.fpDouble(fs)+c.fpDouble(ft))
}

func (c *CPU) subS(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPFloat(fd, c.fpFloat(fs)-c.fpFloat(ft))
}

func (c *CPU) subD(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPDouble(fd, c.fpDouble(fs)-c.fpDouble(ft))
}

func (c *CPU) mulS(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPFloat(fd, c.fpFloat(fs)*c.fpFloat(ft))
}

func (c *CPU) mulD(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPDouble(fd, c.fpDouble(fs)*c.fpDouble(ft))
}

func (c *CPU) divS(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPFloat(fd, c.fpFloat(fs)/c.fpFloat(ft))
}

func (c *CPU) divD(opcode uint32) {
	fd, fs, ft := fpFields(opcode)
	c.setFPDouble(fd, c.fpDouble(fs)/c.fpDouble(ft))
}

func (c *CPU) sqrtS(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, float32(math.Sqrt(float64(c.fpFloat(fs)))))
}

func (c *CPU) sqrtD(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, math.Sqrt(c.fpDouble(fs)))
}

func (c *CPU) absS(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, float32(math.Abs(float64(c.fpFloat(fs)))))
}

func (c *CPU) absD(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, math.Abs(c.fpDouble(fs)))
}

func (c *CPU) movS(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, c.fpFloat(fs))
}

func (c *CPU) movD(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, c.fpDouble(fs))
}

func (c *CPU) negS(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, -c.fpFloat(fs))
}

func (c *CPU) negD(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, -c.fpDouble(fs))
}

// The four IEEE rounding modes used by the ROUND/TRUNC/CEIL/FLOOR family.
func roundNearest(v float64) float64 { return math.RoundToEven(v) }
func roundZero(v float64) float64    { return math.Trunc(v) }
func roundUp(v float64) float64      { return math.Ceil(v) }
func roundDown(v float64) float64    { return math.Floor(v) }

func (c *CPU) cvtRoundW(opcode uint32, src float64, round func(float64) float64) {
	fd, _, _ := fpFields(opcode)
	c.fpWrite32(fd, uint32(int32(round(src))))
}

func (c *CPU) cvtRoundL(opcode uint32, src float64, round func(float64) float64) {
	fd, _, _ := fpFields(opcode)
	c.fpRegs[fd] = uint64(int64(round(src)))
}

func (c *CPU) roundWS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, float64(c.fpFloat(fs)), roundNearest) }
func (c *CPU) roundWD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, c.fpDouble(fs), roundNearest) }
func (c *CPU) roundLS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, float64(c.fpFloat(fs)), roundNearest) }
func (c *CPU) roundLD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, c.fpDouble(fs), roundNearest) }
func (c *CPU) truncWS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, float64(c.fpFloat(fs)), roundZero) }
func (c *CPU) truncWD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, c.fpDouble(fs), roundZero) }
func (c *CPU) truncLS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, float64(c.fpFloat(fs)), roundZero) }
func (c *CPU) truncLD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, c.fpDouble(fs), roundZero) }
func (c *CPU) ceilWS(opcode uint32)  { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, float64(c.fpFloat(fs)), roundUp) }
func (c *CPU) ceilWD(opcode uint32)  { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, c.fpDouble(fs), roundUp) }
func (c *CPU) ceilLS(opcode uint32)  { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, float64(c.fpFloat(fs)), roundUp) }
func (c *CPU) ceilLD(opcode uint32)  { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, c.fpDouble(fs), roundUp) }
func (c *CPU) floorWS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, float64(c.fpFloat(fs)), roundDown) }
func (c *CPU) floorWD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundW(opcode, c.fpDouble(fs), roundDown) }
func (c *CPU) floorLS(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, float64(c.fpFloat(fs)), roundDown) }
func (c *CPU) floorLD(opcode uint32) { _, fs, _ := fpFields(opcode); c.cvtRoundL(opcode, c.fpDouble(fs), roundDown) }

func (c *CPU) cvtSD(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, float32(c.fpDouble(fs)))
}

func (c *CPU) cvtSW(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, float32(int32(c.fpRead32(fs))))
}

func (c *CPU) cvtSL(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPFloat(fd, float32(int64(c.fpRegs[fs])))
}

func (c *CPU) cvtDS(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, float64(c.fpFloat(fs)))
}

func (c *CPU) cvtDW(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, float64(int32(c.fpRead32(fs))))
}

func (c *CPU) cvtDL(opcode uint32) {
	fd, fs, _ := fpFields(opcode)
	c.setFPDouble(fd, float64(int64(c.fpRegs[fs])))
}

func (c *CPU) cvtWS(opcode uint32) { c.cvtRoundW(opcode, float64(c.fpFloat((opcode>>11)&0x1F)), roundNearest) }
func (c *CPU) cvtWD(opcode uint32) { c.cvtRoundW(opcode, c.fpDouble((opcode>>11)&0x1F), roundNearest) }
func (c *CPU) cvtLS(opcode uint32) { c.cvtRoundL(opcode, float64(c.fpFloat((opcode>>11)&0x1F)), roundNearest) }
func (c *CPU) cvtLD(opcode uint32) { c.cvtRoundL(opcode, c.fpDouble((opcode>>11)&0x1F), roundNearest) }

func (c *CPU) setFPCond(cond bool) {
	if cond {
		c.fpStatus |= 1 << 23
	} else {
		c.fpStatus &^= 1 << 23
	}
}

func (c *CPU) cf(opcode uint32) { c.setFPCond(false) }

func (c *CPU) cunS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpFloat(fs), c.fpFloat(ft)
	c.setFPCond(math.IsNaN(float64(a)) || math.IsNaN(float64(b)))
}

func (c *CPU) cunD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpDouble(fs), c.fpDouble(ft)
	c.setFPCond(math.IsNaN(a) || math.IsNaN(b))
}

func (c *CPU) ceqS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpFloat(fs) == c.fpFloat(ft))
}

func (c *CPU) ceqD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpDouble(fs) == c.fpDouble(ft))
}

func (c *CPU) cueqS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpFloat(fs), c.fpFloat(ft)
	c.setFPCond(math.IsNaN(float64(a)) || math.IsNaN(float64(b)) || a == b)
}

func (c *CPU) cueqD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpDouble(fs), c.fpDouble(ft)
	c.setFPCond(math.IsNaN(a) || math.IsNaN(b) || a == b)
}

func (c *CPU) coltS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpFloat(fs) < c.fpFloat(ft))
}

func (c *CPU) coltD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpDouble(fs) < c.fpDouble(ft))
}

func (c *CPU) cultS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpFloat(fs), c.fpFloat(ft)
	c.setFPCond(math.IsNaN(float64(a)) || math.IsNaN(float64(b)) || a < b)
}

func (c *CPU) cultD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpDouble(fs), c.fpDouble(ft)
	c.setFPCond(math.IsNaN(a) || math.IsNaN(b) || a < b)
}

func (c *CPU) coleS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpFloat(fs) <= c.fpFloat(ft))
}

func (c *CPU) coleD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	c.setFPCond(c.fpDouble(fs) <= c.fpDouble(ft))
}

func (c *CPU) culeS(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpFloat(fs), c.fpFloat(ft)
	c.setFPCond(math.IsNaN(float64(a)) || math.IsNaN(float64(b)) || a <= b)
}

func (c *CPU) culeD(opcode uint32) {
	_, fs, ft := fpFields(opcode)
	a, b := c.fpDouble(fs), c.fpDouble(ft)
	c.setFPCond(math.IsNaN(a) || math.IsNaN(b) || a <= b)
}

func (c *CPU) fpUnk(opcode uint32) {
	c.log.Warnw("unknown FPU opcode", "opcode", opcode, "pc", c.pc-4)
}

// sglInstrs is the single-precision FPU instruction table, indexed by
// opcode bits 0-5.
var sglInstrsInit = func(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){
		0x00: c.addS, 0x01: c.subS, 0x02: c.mulS, 0x03: c.divS,
		0x04: c.sqrtS, 0x05: c.absS, 0x06: c.movS, 0x07: c.negS,
		0x08: c.roundLS, 0x09: c.truncLS, 0x0A: c.ceilLS, 0x0B: c.floorLS,
		0x0C: c.roundWS, 0x0D: c.truncWS, 0x0E: c.ceilWS, 0x0F: c.floorWS,
		0x21: c.cvtDS, 0x24: c.cvtWS, 0x25: c.cvtLS,
		0x30: c.cf, 0x31: c.cunS, 0x32: c.ceqS, 0x33: c.cueqS,
		0x34: c.coltS, 0x35: c.cultS, 0x36: c.coleS, 0x37: c.culeS,
		0x38: c.cf, 0x39: c.cunS, 0x3A: c.ceqS, 0x3B: c.cueqS,
		0x3C: c.coltS, 0x3D: c.cultS, 0x3E: c.coleS, 0x3F: c.culeS,
	}
}

var dblInstrsInit = func(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){
		0x00: c.addD, 0x01: c.subD, 0x02: c.mulD, 0x03: c.divD,
		0x04: c.sqrtD, 0x05: c.absD, 0x06: c.movD, 0x07: c.negD,
		0x08: c.roundLD, 0x09: c.truncLD, 0x0A: c.ceilLD, 0x0B: c.floorLD,
		0x0C: c.roundWD, 0x0D: c.truncWD, 0x0E: c.ceilWD, 0x0F: c.floorWD,
		0x20: c.cvtSD, 0x24: c.cvtWD, 0x25: c.cvtLD,
		0x30: c.cf, 0x31: c.cunD, 0x32: c.ceqD, 0x33: c.cueqD,
		0x34: c.coltD, 0x35: c.cultD, 0x36: c.coleD, 0x37: c.culeD,
		0x38: c.cf, 0x39: c.cunD, 0x3A: c.ceqD, 0x3B: c.cueqD,
		0x3C: c.coltD, 0x3D: c.cultD, 0x3E: c.coleD, 0x3F: c.culeD,
	}
}

var wrdInstrsInit = func(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){0x20: c.cvtSW, 0x21: c.cvtDW}
}

var lwdInstrsInit = func(c *CPU) [0x40]func(uint32) {
	return [0x40]func(uint32){0x20: c.cvtSL, 0x21: c.cvtDL}
}

func (c *CPU) dispatchFPU(table [0x40]func(uint32), opcode uint32) {
	if fn := table[opcode&0x3F]; fn != nil {
		fn(opcode)
	} else {
		c.fpUnk(opcode)
	}
}
