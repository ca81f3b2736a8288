package isomorph

// The engine's randomness is deterministic and engine-scoped, not a process
// global, so that two runs built from the same seed with identical
// ingestion produce byte-identical results.
type rng struct {
	state uint32
}

func newRNG(seed uint32) *rng {
	return &rng{state: seed}
}

// next is a simple linear congruential generator, seeded once per engine
// run and drawn from for every fresh unique value assigned during matching.
func (r *rng) next() uint32 {
	r.state = r.state*1103515245 + 12345
	return r.state
}

// random1/random2 are the two neighbor-independent hash functions used to
// seed initial DEVICE/NET values respectively. Both wrap at 32 bits by
// construction (uint32 arithmetic), an intentional reliance on unsigned
// wraparound rather than an incidental overflow.
func random1(x uint32) uint32 { return x*1103515245 + 12345 }
func random2(x uint32) uint32 { return x*1015351425 + 12435 }

// primeFactorTable / primeFactor2Table are fixed multiplier tables indexed by
// terminal class, used in computeValue to differentiate same-valued
// neighbors by the connection role they play. Classes beyond the table are
// wrapped with modulo, since a device master's terminal-class count is
// unbounded in principle but in practice small.
var primeFactorTable = [64]uint32{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
	59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131,
	137, 139, 149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283, 293, 307, 311,
}

var primeFactor2Table = [64]uint32{
	313, 317, 331, 337, 347, 349, 353, 359, 367, 373, 379, 383, 389, 397, 401, 409,
	419, 421, 431, 433, 439, 443, 449, 457, 461, 463, 467, 479, 487, 491, 499, 503,
	509, 521, 523, 541, 547, 557, 563, 569, 571, 577, 587, 593, 599, 601, 607, 613,
	617, 619, 631, 641, 643, 647, 653, 659, 661, 673, 677, 683, 691, 701, 709, 719,
}

func primeFactor(class int) uint32 {
	return primeFactorTable[class%len(primeFactorTable)]
}

func primeFactor2(class int) uint32 {
	return primeFactor2Table[class%len(primeFactor2Table)]
}
