package cpu

// execute dispatches a fetched base-page opcode, returning the T-cycles consumed.
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP
		c.fetch8() // the second STOP byte, conventionally 0x00, is read and discarded
		c.halted = true
		return 4

	// LD r, d8
	case 0x06:
		c.B = c.fetch8()
		return 8
	case 0x0E:
		c.C = c.fetch8()
		return 8
	case 0x16:
		c.D = c.fetch8()
		return 8
	case 0x1E:
		c.E = c.fetch8()
		return 8
	case 0x26:
		c.H = c.fetch8()
		return 8
	case 0x2E:
		c.L = c.fetch8()
		return 8
	case 0x3E:
		c.A = c.fetch8()
		return 8

	// LD r,r' and LD (HL),r / LD r,(HL)
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		if op == 0x76 { // HALT handled elsewhere
			c.halted = true
			return 4
		}
		d := (op >> 3) & 7
		s := op & 7
		// Map reg index to value pointer; 6 means (HL)
		get := func(idx byte) byte {
			switch idx {
			case 0:
				return c.B
			case 1:
				return c.C
			case 2:
				return c.D
			case 3:
				return c.E
			case 4:
				return c.H
			case 5:
				return c.L
			case 6:
				return c.read8(c.getHL())
			case 7:
				return c.A
			}
			return 0
		}
		set := func(idx byte, val byte) {
			switch idx {
			case 0:
				c.B = val
			case 1:
				c.C = val
			case 2:
				c.D = val
			case 3:
				c.E = val
			case 4:
				c.H = val
			case 5:
				c.L = val
			case 6:
				c.write8(c.getHL(), val)
			case 7:
				c.A = val
			}
		}
		val := get(byte(s))
		set(byte(d), val)
		if d == 6 || s == 6 {
			return 8
		}
		return 4

	// 16-bit loads
	case 0x01: // LD BC,d16
		c.setBC(c.fetch16())
		return 12
	case 0x11: // LD DE,d16
		c.setDE(c.fetch16())
		return 12
	case 0x21: // LD HL,d16
		c.setHL(c.fetch16())
		return 12
	case 0x31: // LD SP,d16
		c.SP = c.fetch16()
		return 12
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.SP)
		return 20

	// LD (HL), d8
	case 0x36:
		v := c.fetch8()
		c.write8(c.getHL(), v)
		return 12

	// LD (BC),A / (DE),A and A,(BC)/(DE)
	case 0x02:
		c.write8(c.getBC(), c.A)
		return 8
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8

	// LDI/LDD via HL
	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8

	// LDH (FF00+n),A and A,(FF00+n)
	case 0xE0:
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.A)
		return 12
	case 0xF0:
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 12
	// LD (FF00+C),A and A,(FF00+C)
	// Rotates and flag ops
	case 0x07: // RLCA
		cval := (c.A >> 7) & 1
		c.A = (c.A << 1) | byte(cval)
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x0F: // RRCA
		cval := c.A & 1
		c.A = (c.A >> 1) | (cval << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x17: // RLA
		cval := (c.A >> 7) & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A << 1) | carry
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x1F: // RRA
		cval := c.A & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A >> 1) | (carry << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x27: // DAA
		a := c.A
		cf := (c.F & flagC) != 0
		if (c.F & flagN) == 0 { // after addition
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if (c.F&flagH) != 0 || (a&0x0F) > 9 {
				a += 0x06
			}
		} else { // after subtraction
			if cf {
				a -= 0x60
			}
			if (c.F & flagH) != 0 {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, (c.F&flagN) != 0, false, cf)
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		// N and H set, C unchanged, Z unchanged
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 4
	case 0x3F: // CCF
		if (c.F & flagC) != 0 {
			c.F = c.F &^ flagC
		} else {
			c.F |= flagC
		}
		c.F &^= (flagN | flagH)
		c.F &= (flagZ | flagC)
		return 4

	case 0xE2:
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case 0xF2:
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8

	case 0x04: // INC B
		old := c.B
		c.B++
		z := c.B == 0
		h := (old & 0x0F) == 0x0F
		c.setZNHC(z, false, h, (c.F&flagC) != 0)
		return 4

	// INC r / DEC r for all regs and (HL)
	case 0x0C: // INC C
		old := c.C
		c.C++
		c.setZNHC(c.C == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x14:
		old := c.D
		c.D++
		c.setZNHC(c.D == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x1C:
		old := c.E
		c.E++
		c.setZNHC(c.E == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x24:
		old := c.H
		c.H++
		c.setZNHC(c.H == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x2C:
		old := c.L
		c.L++
		c.setZNHC(c.L == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x3C:
		old := c.A
		c.A++
		c.setZNHC(c.A == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x34: // INC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		old := v
		v++
		c.write8(addr, v)
		z := v == 0
		h := (old & 0x0F) == 0x0F
		c.setZNHC(z, false, h, (c.F&flagC) != 0)
		return 12

	case 0x05: // DEC B
		old := c.B
		c.B--
		c.setZNHC(c.B == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x0D:
		old := c.C
		c.C--
		c.setZNHC(c.C == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x15:
		old := c.D
		c.D--
		c.setZNHC(c.D == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x1D:
		old := c.E
		c.E--
		c.setZNHC(c.E == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x25:
		old := c.H
		c.H--
		c.setZNHC(c.H == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x2D:
		old := c.L
		c.L--
		c.setZNHC(c.L == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x3D:
		old := c.A
		c.A--
		c.setZNHC(c.A == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x35: // DEC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		old := v
		v--
		c.write8(addr, v)
		z := v == 0
		h := (old & 0x0F) == 0x00
		c.setZNHC(z, true, h, (c.F&flagC) != 0)
		return 12

	// 0xAF handled in XOR group below

	// ADD/ADC/SUB/SBC/AND/XOR/OR/CP with registers
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x87:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.add8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8F:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.adc8(c.A, src, (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x97:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.sub8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9F:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.sbc8(c.A, src, (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA7:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.and8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAF:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.xor8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB7:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		r, z, n, h, cy := c.or8(c.A, src)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBF:
		var src byte
		switch op & 7 {
		case 0:
			src = c.B
		case 1:
			src = c.C
		case 2:
			src = c.D
		case 3:
			src = c.E
		case 4:
			src = c.H
		case 5:
			src = c.L
		case 7:
			src = c.A
		}
		z, n, h, cy := c.cp8(c.A, src)
		c.setZNHC(z, n, h, cy)
		return 4

	// ALU with (HL)
	case 0x86:
		r, z, n, h, cy := c.add8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x8E:
		r, z, n, h, cy := c.adc8(c.A, c.read8(c.getHL()), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x96:
		r, z, n, h, cy := c.sub8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x9E:
		r, z, n, h, cy := c.sbc8(c.A, c.read8(c.getHL()), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xA6:
		r, z, n, h, cy := c.and8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xAE:
		r, z, n, h, cy := c.xor8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xB6:
		r, z, n, h, cy := c.or8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xBE:
		z, n, h, cy := c.cp8(c.A, c.read8(c.getHL()))
		c.setZNHC(z, n, h, cy)
		return 8

	// ALU immediate
	case 0xC6:
		r, z, n, h, cy := c.add8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xCE:
		r, z, n, h, cy := c.adc8(c.A, c.fetch8(), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xD6:
		r, z, n, h, cy := c.sub8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xDE:
		r, z, n, h, cy := c.sbc8(c.A, c.fetch8(), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xE6:
		r, z, n, h, cy := c.and8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xEE:
		r, z, n, h, cy := c.xor8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xF6:
		r, z, n, h, cy := c.or8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xFE:
		z, n, h, cy := c.cp8(c.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xEA: // LD (a16),A
		addr := c.fetch16()
		c.write8(addr, c.A)
		return 16
	case 0xFA: // LD A,(a16)
		addr := c.fetch16()
		c.A = c.read8(addr)
		return 16

	case 0xC3: // JP a16
		addr := c.fetch16()
		c.PC = addr
		return 16
	case 0xE9: // JP (HL)
		c.PC = c.getHL()
		return 4
	case 0x18: // JR r8
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12

	// JR cc,r8
	case 0x20: // JR NZ
		off := int8(c.fetch8())
		if (c.F & flagZ) == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x28: // JR Z
		off := int8(c.fetch8())
		if (c.F & flagZ) != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x30: // JR NC
		off := int8(c.fetch8())
		if (c.F & flagC) == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x38: // JR C
		off := int8(c.fetch8())
		if (c.F & flagC) != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8

	// CALL/RET
	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	case 0xC9: // RET
		c.PC = c.pop16()
		return 16
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.IME = true
		return 16

	// RST t
	case 0xC7:
		c.push16(c.PC)
		c.PC = 0x00
		return 16
	case 0xCF:
		c.push16(c.PC)
		c.PC = 0x08
		return 16
	case 0xD7:
		c.push16(c.PC)
		c.PC = 0x10
		return 16
	case 0xDF:
		c.push16(c.PC)
		c.PC = 0x18
		return 16
	case 0xE7:
		c.push16(c.PC)
		c.PC = 0x20
		return 16
	case 0xEF:
		c.push16(c.PC)
		c.PC = 0x28
		return 16
	case 0xF7:
		c.push16(c.PC)
		c.PC = 0x30
		return 16
	case 0xFF:
		c.push16(c.PC)
		c.PC = 0x38
		return 16

	// CALL cc
	case 0xC4: // NZ
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xCC: // Z
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xD4: // NC
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xDC: // C
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12

	// RET cc
	case 0xC0:
		if (c.F & flagZ) == 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xC8:
		if (c.F & flagZ) != 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xD0:
		if (c.F & flagC) == 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xD8:
		if (c.F & flagC) != 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8

	// JP cc,a16
	case 0xC2:
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xCA:
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xD2:
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xDA:
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.PC = addr
			return 16
		}
		return 12

	// 16-bit INC/DEC and ADD HL,rr
	case 0x03:
		c.setBC(c.getBC() + 1)
		return 8
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 8
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 8
	case 0x33:
		c.SP++
		return 8
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 8
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 8
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 8
	case 0x3B:
		c.SP--
		return 8
	case 0x09: // ADD HL,BC
		hl := c.getHL()
		bc := c.getBC()
		r := uint32(hl) + uint32(bc)
		h := ((hl & 0x0FFF) + (bc & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x19:
		hl := c.getHL()
		de := c.getDE()
		r := uint32(hl) + uint32(de)
		h := ((hl & 0x0FFF) + (de & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x29:
		hl := c.getHL()
		hl2 := hl
		r := uint32(hl) + uint32(hl2)
		h := ((hl & 0x0FFF) + (hl2 & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x39:
		hl := c.getHL()
		sp := c.SP
		r := uint32(hl) + uint32(sp)
		h := ((hl & 0x0FFF) + (sp & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8

	// Stack/SP ops
	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		res := uint16(int32(int16(c.SP)) + int32(off))
		// Flags: Z=0,N=0,H,C set from lower byte carry
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(res)
		c.setZNHC(false, false, h, cy)
		return 12
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 8
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		res := uint16(int32(int16(c.SP)) + int32(off))
		c.SP = res
		c.setZNHC(false, false, h, cy)
		return 16

	// EI/DI
	case 0xF3: // DI
		c.IME = false
		c.eiPending = false
		return 4
	case 0xFB: // EI (enable after following instruction)
		c.eiPending = true
		return 4

	// CB prefix
	case 0xCB:
		return c.executeCB()

	// PUSH/POP
	case 0xF5: // PUSH AF
		c.push16(c.getAF())
		return 16
	case 0xC5: // PUSH BC
		c.push16(c.getBC())
		return 16
	case 0xD5: // PUSH DE
		c.push16(c.getDE())
		return 16
	case 0xE5: // PUSH HL
		c.push16(c.getHL())
		return 16
	case 0xF1: // POP AF
		c.setAF(c.pop16())
		return 12
	case 0xC1: // POP BC
		c.setBC(c.pop16())
		return 12
	case 0xD1: // POP DE
		c.setDE(c.pop16())
		return 12
	case 0xE1: // POP HL
		c.setHL(c.pop16())
		return 12

	case 0x76: // HALT
		c.halted = true
		return 4

	default:
		// The 11 unused opcodes (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC,
		// 0xED, 0xF4, 0xFC, 0xFD) execute as 1-byte NOPs.
		return 4
	}
}
