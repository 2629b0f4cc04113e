package rsp

// cp2Read serves MFC2/CFC2 and the vector load instructions: control reads
// pull from VCO/VCC/VCE, non-control reads pull one or two bytes out of a
// vector register's 8 16-bit lanes depending on byte alignment.
func (r *RSP) cp2Read(control bool, index int, byte_ int) int16 {
	if control {
		switch index {
		case 0:
			return int16(r.vco)
		case 1:
			return int16(r.vcc)
		case 2:
			return int16(r.vce)
		default:
			r.log.Debugw("read from unknown RSP CP2 control register", "index", index)
			return 0
		}
	}

	byte_ &= 0xF
	reg := &r.vregs[index&0x1F]
	switch {
	case byte_ == 15:
		// Wrap around to the first lane when the starting byte is 15.
		return int16(reg[7]<<8 | reg[0]>>8)
	case byte_&1 == 0:
		return int16(reg[byte_/2])
	default:
		return int16(reg[byte_/2]<<8 | reg[byte_/2+1]>>8)
	}
}

// cp2Write is cp2Read's dual for MTC2/CTC2 and the vector store instructions.
func (r *RSP) cp2Write(control bool, index int, byte_ int, value uint16) {
	if control {
		switch index {
		case 0:
			r.vco = value
		case 1:
			r.vcc = value
		case 2:
			r.vce = value
		default:
			r.log.Debugw("write to unknown RSP CP2 control register", "index", index)
		}
		return
	}

	if byte_ > 15 {
		return
	}
	reg := &r.vregs[index&0x1F]
	switch {
	case byte_ == 15:
		reg[7] = (reg[7] &^ 0xFF) | ((value >> 8) & 0xFF)
	case byte_&1 == 0:
		reg[byte_/2] = value
	default:
		reg[byte_/2+0] = (reg[byte_/2+0] &^ 0xFF) | ((value >> 8) & 0xFF)
		reg[byte_/2+1] = (reg[byte_/2+1] & 0xFF) | ((value << 8) &^ 0xFF)
	}
}

func clampSigned(value int64) uint16 {
	switch {
	case value < -32768:
		return 0x8000
	case value > 32767:
		return 0x7FFF
	default:
		return uint16(int16(value))
	}
}

// clampUnsigned reproduces the reference core's asymmetric clamp: negative
// values floor at zero, but anything above the signed max saturates all the
// way to 0xFFFF rather than 0x7FFF, a quirk carried over from real hardware.
func clampUnsigned(value int64) uint16 {
	switch {
	case value < 0:
		return 0
	case value > 32767:
		return 0xFFFF
	default:
		return uint16(value)
	}
}

func (r *RSP) mfc2(opcode uint32) {
	index := int((opcode >> 11) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	r.setReg((opcode>>16)&0x1F, uint32(int32(r.cp2Read(false, index, byte_))))
}

func (r *RSP) cfc2(opcode uint32) {
	index := int((opcode >> 11) & 0x1F)
	r.setReg((opcode>>16)&0x1F, uint32(int32(r.cp2Read(true, index, 0))))
}

func (r *RSP) mtc2(opcode uint32) {
	index := int((opcode >> 11) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	r.cp2Write(false, index, byte_, uint16(r.reg((opcode>>16)&0x1F)))
}

func (r *RSP) ctc2(opcode uint32) {
	index := int((opcode >> 11) & 0x1F)
	r.cp2Write(true, index, 0, uint16(r.reg((opcode>>16)&0x1F)))
}

func (r *RSP) cop2(opcode uint32) {
	switch (opcode >> 21) & 0x1F {
	case 0x00:
		r.mfc2(opcode)
	case 0x02:
		r.cfc2(opcode)
	case 0x04:
		r.mtc2(opcode)
	case 0x06:
		r.ctc2(opcode)
	default:
		if opcode&(1<<25) != 0 {
			r.vecInstrs[opcode&0x3F](opcode)
		} else {
			r.unk(opcode)
		}
	}
}

// lbv loads a single byte into the high half of one 16-bit lane; vector
// memory accesses are always 16-bit wide, so the low half keeps whatever it
// already held.
func (r *RSP) lbv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1)>>1))
	existing := uint16(r.cp2Read(false, index, byte_)) & 0xFF
	r.cp2Write(false, index, byte_, existing|uint16(r.memRead8(addr&0xFFF))<<8)
}

func (r *RSP) lsv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1)))
	r.cp2Write(false, index, byte_, r.memRead16(addr&0xFFF))
}

func (r *RSP) llv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<1)
	for i := uint32(0); i < 4; i += 2 {
		r.cp2Write(false, index, byte_+int(i), r.memRead16((addr+i)&0xFFF))
	}
}

func (r *RSP) ldv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i += 2 {
		r.cp2Write(false, index, byte_+int(i), r.memRead16((addr+i)&0xFFF))
	}
}

// lqv loads up to 16 bytes into a vector register, stopping at the next
// 16-byte boundary, the vector analogue of the scalar core's LDL.
func (r *RSP) lqv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	limit := 15 - int(addr&0xF)
	for i := 0; i < limit; i += 2 {
		r.cp2Write(false, index, byte_+i, r.memRead16((addr+uint32(i))&0xFFF))
	}
	if addr&0x1 != 0 {
		i := limit
		value := r.memRead8((addr + uint32(i)) & 0xFFF)
		existing := uint16(r.cp2Read(false, index, byte_+i)) & 0xFF
		r.cp2Write(false, index, byte_+i, existing|uint16(value)<<8)
	}
}

// lrv loads the tail end of an unaligned 16-byte vector load, the analogue
// of LDR; writes past lane 15 are silently dropped, so odd byte counts need
// no special handling here unlike lqv.
func (r *RSP) lrv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	start := 16 - int(addr&0xF)
	for i := start; i < 16; i += 2 {
		r.cp2Write(false, index, byte_+i, r.memRead16((addr+uint32(i)-16)&0xFFF))
	}
}

func (r *RSP) lpv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i++ {
		r.cp2Write(false, index, byte_+int(i)*2, uint16(r.memRead8((addr+i)&0xFFF))<<8)
	}
}

func (r *RSP) luv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i++ {
		r.cp2Write(false, index, byte_+int(i)*2, uint16(r.memRead8((addr+i)&0xFFF))<<7)
	}
}

// ltv transposes 16 bytes of memory across 8 consecutive vector registers,
// loading one lane of each register per 16-bit memory access.
func (r *RSP) ltv(opcode uint32) {
	index := int((opcode >> 16) & 0x18)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	for i := 0; i < 16; i += 2 {
		b := (byte_ + i) & 0xF
		r.cp2Write(false, index+b/2, i, r.memRead16((addr+uint32(b))&0xFFF))
	}
}

func (r *RSP) sbv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1)>>1))
	r.memWrite8(addr&0xFFF, uint8(uint16(r.cp2Read(false, index, byte_))>>8))
}

func (r *RSP) ssv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1)))
	r.memWrite16(addr&0xFFF, uint16(r.cp2Read(false, index, byte_)))
}

func (r *RSP) slv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<1)
	for i := uint32(0); i < 4; i += 2 {
		r.memWrite16((addr+i)&0xFFF, uint16(r.cp2Read(false, index, byte_+int(i))))
	}
}

func (r *RSP) sdv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i += 2 {
		r.memWrite16((addr+i)&0xFFF, uint16(r.cp2Read(false, index, byte_+int(i))))
	}
}

func (r *RSP) sqv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	limit := 15 - int(addr&0xF)
	for i := 0; i < limit; i += 2 {
		r.memWrite16((addr+uint32(i))&0xFFF, uint16(r.cp2Read(false, index, byte_+i)))
	}
	if addr&0x1 != 0 {
		i := limit
		a := (addr + uint32(i)) & 0xFFF
		r.memWrite8(a, uint8(uint16(r.cp2Read(false, index, byte_+i))>>8))
	}
}

func (r *RSP) srv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	start := 16 - int(addr&0xF)
	for i := start; i < 15; i += 2 {
		r.memWrite16((addr+uint32(i)-16)&0xFFF, uint16(r.cp2Read(false, index, byte_+i)))
	}
	if addr&0x1 != 0 {
		i := 15
		a := (addr + uint32(i) - 16) & 0xFFF
		r.memWrite8(a, uint8(uint16(r.cp2Read(false, index, byte_+i))>>8))
	}
}

func (r *RSP) spv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i++ {
		r.memWrite8((addr+i)&0xFFF, uint8(uint16(r.cp2Read(false, index, byte_+int(i)*2))>>8))
	}
}

func (r *RSP) suv(opcode uint32) {
	index := int((opcode >> 16) & 0x1F)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<2)
	for i := uint32(0); i < 8; i++ {
		r.memWrite8((addr+i)&0xFFF, uint8(uint16(r.cp2Read(false, index, byte_+int(i)*2))>>7))
	}
}

func (r *RSP) stv(opcode uint32) {
	index := int((opcode >> 16) & 0x18)
	byte_ := int((opcode >> 7) & 0xF)
	addr := r.reg((opcode>>21)&0x1F) + uint32(int32(int8(opcode<<1))<<3)
	for i := uint32(0); i < 16; i += 2 {
		a := (addr & 0xFF0) + ((addr + i) & 0xF)
		b := index + int((uint32(byte_)+i)&0xF)/2
		r.memWrite16(a&0xFFF, uint16(r.cp2Read(false, b, int(i))))
	}
}

func (r *RSP) lwc2(opcode uint32) {
	switch (opcode >> 11) & 0x1F {
	case 0x00:
		r.lbv(opcode)
	case 0x01:
		r.lsv(opcode)
	case 0x02:
		r.llv(opcode)
	case 0x03:
		r.ldv(opcode)
	case 0x04:
		r.lqv(opcode)
	case 0x05:
		r.lrv(opcode)
	case 0x06:
		r.lpv(opcode)
	case 0x07:
		r.luv(opcode)
	case 0x0B:
		r.ltv(opcode)
	default:
		r.unk(opcode)
	}
}

func (r *RSP) swc2(opcode uint32) {
	switch (opcode >> 11) & 0x1F {
	case 0x00:
		r.sbv(opcode)
	case 0x01:
		r.ssv(opcode)
	case 0x02:
		r.slv(opcode)
	case 0x03:
		r.sdv(opcode)
	case 0x04:
		r.sqv(opcode)
	case 0x05:
		r.srv(opcode)
	case 0x06:
		r.spv(opcode)
	case 0x07:
		r.suv(opcode)
	case 0x0B:
		r.stv(opcode)
	default:
		r.unk(opcode)
	}
}
