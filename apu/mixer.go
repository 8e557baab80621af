package apu

// mixer combines the five channels' raw DAC levels using the NES's
// non-linear hardware mixing formulas, then applies the analog output
// stage's two high-pass filters and one low-pass filter.
type mixer struct {
	hp1Mem, hp2Mem, lpMem float32
}

func (m *mixer) mix(p1, p2, tri, noise, dmc byte) float32 {
	pulseOut := float32(0)
	if p1 != 0 || p2 != 0 {
		pulseOut = 95.88 / (8128.0/float32(p1+p2) + 100.0)
	}
	tnd := float32(0)
	if tri != 0 || noise != 0 || dmc != 0 {
		tnd = 1.0 / (float32(tri)/8227.0 + float32(noise)/12241.0 + float32(dmc)/22638.0)
		tnd = 159.79 / (tnd + 100.0)
	}
	raw := pulseOut + tnd

	const hp1A = float32(0.996)
	hp1 := raw - m.hp1Mem
	m.hp1Mem = raw - hp1*hp1A

	const hp2A = float32(0.994)
	hp2 := hp1 - m.hp2Mem
	m.hp2Mem = hp1 - hp2*hp2A

	const lpA = float32(0.815)
	lp := lpA*m.lpMem + (1-lpA)*hp2
	m.lpMem = lp

	return lp
}
