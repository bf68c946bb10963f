package randomx

// vmProgramSize is the number of instructions in one RandomX VM
// program.
const vmProgramSize = 256

// superscalarProgramSize is the maximum instruction count for one
// SuperscalarHash dataset-generation program.
const superscalarProgramSize = 512

// program is a decoded sequence of VM instructions, generated
// deterministically from a seed via a blake2Generator.
type program []instruction

func generateProgram(seed []byte, size int) program {
	gen := newBlake2Generator(seed)
	prog := make(program, size)
	for i := range prog {
		prog[i] = decodeInstruction(gen)
	}
	return prog
}
