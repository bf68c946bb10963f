package randomx

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/salvium/wallet-core/internal/cryptoops"
)

const (
	vmIterations   = 2048
	vmProgramCount = 8
	scratchpadMask = scratchpadSize - 8 // 8-byte-aligned address mask
)

// registerFile is the VM's working register set: eight 64-bit integer
// registers and three groups of four doubles (f: accumulator, written
// by FADD/FSUB; e: written by FDIV/FSQRT; a: read-only constants drawn
// from the program's entropy at generation time).
type registerFile struct {
	R [8]uint64
	F [4]float64
	E [4]float64
	A [4]float64
}

// VM is a single-owner RandomX virtual machine: a 2 MB scratchpad plus
// register file, bound read-only to a shared Context. Not safe for
// concurrent use; a caller hashing on multiple threads allocates one
// VM per thread.
type VM struct {
	ctx        *Context
	scratchpad []byte
	regs       registerFile
	round      byte // CFROUND's selected rounding mode; tracked but not applied to math ops
}

// CalculateHash runs the full RandomX pipeline over input and returns
// the 32-byte result. Infallible over a validly-initialized Context.
func (vm *VM) CalculateHash(input []byte) [32]byte {
	tempHash := [64]byte{}
	copy(tempHash[:], cryptoops.MustBlake2b(64, nil, input))

	vm.scratchpad = aesFillScratchpad(tempHash)
	vm.regs = vm.seedRegisters(tempHash)

	for round := 0; round < vmProgramCount; round++ {
		prog := generateProgram(tempHash[:], vmProgramSize)
		vm.executeProgram(prog)

		if round < vmProgramCount-1 {
			tempHash = vm.hashRegisterFile()
		}
	}

	aesDigest := aesHashScratchpad(vm.scratchpad)
	for i := 0; i < 4; i++ {
		word := binary.LittleEndian.Uint64(aesDigest[i*8 : i*8+8])
		vm.regs.A[i] = math.Float64frombits(word ^ math.Float64bits(vm.regs.A[i]))
	}

	final := vm.hashRegisterFile()
	var out [32]byte
	copy(out[:], cryptoops.MustBlake2b(32, nil, final[:]))
	return out
}

func (vm *VM) seedRegisters(seed [64]byte) registerFile {
	var rf registerFile
	for i := 0; i < 8; i++ {
		rf.R[i] = binary.LittleEndian.Uint64(seed[i*8 : i*8+8])
	}
	for i := 0; i < 4; i++ {
		rf.A[i] = math.Float64frombits(binary.LittleEndian.Uint64(seed[i*8:i*8+8]) | 0x3FF0000000000000)
	}
	return rf
}

func (vm *VM) hashRegisterFile() [64]byte {
	buf := make([]byte, 0, 8*8+4*8+4*8)
	for _, r := range vm.regs.R {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], r)
		buf = append(buf, b[:]...)
	}
	for _, f := range vm.regs.F {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		buf = append(buf, b[:]...)
	}
	for _, e := range vm.regs.E {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(e))
		buf = append(buf, b[:]...)
	}
	var out [64]byte
	copy(out[:], cryptoops.MustBlake2b(64, nil, buf))
	return out
}

// executeProgram runs prog for vmIterations steps, reading/writing the
// scratchpad and folding in one dataset item per iteration, per the
// documented per-iteration contract.
func (vm *VM) executeProgram(prog program) {
	for iter := 0; iter < vmIterations; iter++ {
		mx := uint32(vm.regs.R[0]) & scratchpadMask
		ma := uint32(vm.regs.R[1]) & scratchpadMask

		for i := 0; i < 8; i++ {
			vm.regs.R[i] ^= binary.LittleEndian.Uint64(vm.scratchpad[(int(mx)+i*8)%len(vm.scratchpad):])
		}

		vm.runInstructions(prog)

		itemNumber := uint64(ma) / DatasetItemSize % vm.datasetItemCount()
		item := vm.readDatasetItem(itemNumber)
		for i := 0; i < 8; i++ {
			vm.regs.R[i] ^= item[i]
		}

		for i := 0; i < 8; i++ {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], vm.regs.R[i])
			copy(vm.scratchpad[(int(ma)+i*8)%len(vm.scratchpad):], b[:])
		}
	}
}

func (vm *VM) datasetItemCount() uint64 {
	if vm.ctx.dataset != nil {
		return uint64(len(vm.ctx.dataset.memory)) / DatasetItemSize
	}
	return vm.ctx.cache.NumBlocks()
}

func (vm *VM) readDatasetItem(itemNumber uint64) [8]uint64 {
	if vm.ctx.dataset != nil {
		if item, ok := vm.ctx.dataset.ReadItem(itemNumber); ok {
			return item
		}
	}
	return datasetItem(vm.ctx.cache, itemNumber)
}

// runInstructions executes one generated program against the register
// file and scratchpad.
func (vm *VM) runInstructions(prog program) {
	r := &vm.regs.R
	for pc := 0; pc < len(prog); pc++ {
		in := prog[pc]
		d, s := in.Dst, in.Src
		switch in.Op {
		case opIaddRs:
			r[d] += r[s] + uint64(in.Imm32)
		case opIaddM:
			r[d] += vm.loadScratchpadInt(s, in.Imm32)
		case opIsubR:
			r[d] -= r[s]
		case opIsubM:
			r[d] -= vm.loadScratchpadInt(s, in.Imm32)
		case opImulR:
			r[d] *= r[s]
		case opImulM:
			r[d] *= vm.loadScratchpadInt(s, in.Imm32)
		case opImulhR:
			hi, _ := bits.Mul64(r[d], r[s])
			r[d] = hi
		case opIsmulhR:
			r[d] = uint64(smulh(int64(r[d]), int64(r[s])))
		case opImulRcp:
			if in.Imm32 != 0 {
				r[d] *= reciprocal(uint64(in.Imm32))
			}
		case opInegR:
			r[d] = ^r[d] + 1
		case opIxorR:
			r[d] ^= r[s]
		case opIxorM:
			r[d] ^= vm.loadScratchpadInt(s, in.Imm32)
		case opIrorR:
			r[d] = bits.RotateLeft64(r[d], -int(r[s]%64))
		case opIrolR:
			r[d] = bits.RotateLeft64(r[d], int(r[s]%64))
		case opIswapR:
			r[d], r[s] = r[s], r[d]
		case opFaddR:
			vm.regs.F[d%4] += vm.regs.A[s%4]
		case opFsubR:
			vm.regs.F[d%4] -= vm.regs.A[s%4]
		case opFmulR:
			vm.regs.E[d%4] *= vm.regs.A[s%4]
		case opFdivR:
			if vm.regs.A[s%4] != 0 {
				vm.regs.E[d%4] /= vm.regs.A[s%4]
			}
		case opFsqrtR:
			vm.regs.E[d%4] = math.Sqrt(math.Abs(vm.regs.E[d%4]))
		case opCbranch:
			r[d] += uint64(in.Imm32) | 1
			if r[d]&0xFF == 0 && pc > 0 {
				pc = -1 // restart the program; matches the documented register-conditioned branch-back behavior structurally
			}
		case opCfround:
			vm.round = byte(in.Imm32 % 4)
		case opIstore:
			addr := (uint32(r[d]) + in.Imm32) & scratchpadMask
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], r[s])
			copy(vm.scratchpad[int(addr)%len(vm.scratchpad):], b[:])
		}
	}
}

func (vm *VM) loadScratchpadInt(src byte, imm uint32) uint64 {
	addr := (uint32(vm.regs.R[src]) + imm) & scratchpadMask
	return binary.LittleEndian.Uint64(vm.scratchpad[int(addr)%len(vm.scratchpad):])
}
