package cpu

// executeCB dispatches a CB-prefixed opcode (rotate/shift/BIT/RES/SET).
func (c *CPU) executeCB() int {
	cb := c.fetch8()
	reg := cb & 7
	opg := (cb >> 6) & 3
	y := (cb >> 3) & 7
	// helpers
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
	set := func(idx byte, v byte) {
		switch idx {
		case 0:
			c.B = v
		case 1:
			c.C = v
		case 2:
			c.D = v
		case 3:
			c.E = v
		case 4:
			c.H = v
		case 5:
			c.L = v
		case 6:
			c.write8(c.getHL(), v)
		case 7:
			c.A = v
		}
	}
	cycles := 8
	if reg == 6 {
		cycles = 16
	}
	switch opg {
	case 0: // rotate/shift/swap
		v := get(reg)
		var cflag byte
		switch y {
		case 0: // RLC
			cflag = (v >> 7) & 1
			v = (v << 1) | cflag
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 1: // RRC
			cflag = v & 1
			v = (v >> 1) | (cflag << 7)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 2: // RL
			cflag = (v >> 7) & 1
			cin := byte(0)
			if (c.F & flagC) != 0 {
				cin = 1
			}
			v = (v << 1) | cin
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 3: // RR
			cflag = v & 1
			cin := byte(0)
			if (c.F & flagC) != 0 {
				cin = 1
			}
			v = (v >> 1) | (cin << 7)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 4: // SLA
			cflag = (v >> 7) & 1
			v <<= 1
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 5: // SRA
			cflag = v & 1
			v = (v >> 1) | (v & 0x80)
			c.setZNHC(v == 0, false, false, cflag == 1)
		case 6: // SWAP
			v = (v << 4) | (v >> 4)
			c.setZNHC(v == 0, false, false, false)
		case 7: // SRL
			cflag = v & 1
			v >>= 1
			c.setZNHC(v == 0, false, false, cflag == 1)
		}
		set(reg, v)
	case 1: // BIT y, r
		v := get(reg)
		bit := (v >> y) & 1
		z := bit == 0
		// Z set if bit=0, N=0, H=1, C unchanged
		c.F = (c.F & flagC) | flagH
		if z {
			c.F |= flagZ
		}
	case 2: // RES y, r
		v := get(reg)
		v &^= (1 << y)
		set(reg, v)
	case 3: // SET y, r
		v := get(reg)
		v |= (1 << y)
		set(reg, v)
	}
	return cycles
}
