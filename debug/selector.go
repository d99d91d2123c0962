package debug

type Tselector string

// ALWAYS
const (
	ALWAYS Tselector = "ALWAYS"
	ERROR            = "ERROR"
	NEVER            = "NEVER"
)

// ERR
const (
	ERR Tselector = "_ERR"
)

// Tests
const (
	TEST  Tselector = "TEST"
	TEST1           = "TEST1"
)

// Kernel
const (
	KERNEL        Tselector = "KERNEL"
	KERNEL_ERR              = KERNEL + ERR
	FILE                    = "FILE"
	REFMAP_SUFFIX           = "_REFMAP"
)

// Memory
const (
	KALLOC Tselector = "KALLOC"
	PGTBL            = "PGTBL"
	VM               = "VM"
	VM_ERR           = VM + ERR
	TLB              = "TLB"
)

// Processes
const (
	PROC     Tselector = "PROC"
	PROC_ERR           = PROC + ERR
	SCHED              = "SCHED"
	SWTCH              = "SWTCH"
	SLEEP              = "SLEEP"
	FORK               = "FORK"
	EXIT               = "EXIT"
	WAIT               = "WAIT"
)
