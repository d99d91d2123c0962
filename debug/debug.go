package debug

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
)

const ARMOSDEBUG = "ARMOSDEBUG"

var labels atomic.Pointer[map[Tselector]bool]
var fatal atomic.Pointer[func(string)]

func init() {
	// XXX may want to set log.Ldate when not debugging
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	SetDebug(os.Getenv(ARMOSDEBUG))
}

//
// Debug output is controled by the ARMOSDEBUG environment variable,
// which can be a list of labels (e.g., "SCHED;PGTBL"). The kernel
// config can add more with SetDebug.
//

func parseLabels(s string) map[Tselector]bool {
	m := make(map[Tselector]bool)
	if s == "" {
		return m
	}
	for _, l := range strings.Split(s, ";") {
		m[Tselector(strings.TrimSpace(l))] = true
	}
	return m
}

// SetDebug replaces the set of enabled labels.
func SetDebug(s string) {
	m := parseLabels(s)
	labels.Store(&m)
}

// AddDebug enables the labels in s in addition to the current ones.
func AddDebug(s string) {
	m := parseLabels(s)
	for l := range *labels.Load() {
		m[l] = true
	}
	labels.Store(&m)
}

func IsLabelSet(label Tselector) bool {
	if label == ALWAYS {
		return true
	}
	return (*labels.Load())[label]
}

func DPrintf(label Tselector, format string, v ...interface{}) {
	if IsLabelSet(label) {
		log.Printf("%v %v", label, fmt.Sprintf(format, v...))
	}
}

// SetFatal replaces what DFatalf does with its message; nil restores
// the default, which logs and exits. A replacement that returns
// makes DFatalf panic with the message.
func SetFatal(f func(msg string)) {
	if f == nil {
		fatal.Store(nil)
		return
	}
	fatal.Store(&f)
}

func DFatalf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	// Get info for the caller.
	pc, file, line, ok := runtime.Caller(1)
	fnDetails := runtime.FuncForPC(pc)
	if ok && fnDetails != nil {
		msg = fmt.Sprintf("FATAL %v %v:%v %v", fnDetails.Name(), file, line, msg)
	} else {
		msg = fmt.Sprintf("FATAL (missing details) %v", msg)
	}
	if f := fatal.Load(); f != nil {
		(*f)(msg)
		panic(msg)
	}
	log.Fatal(msg)
}
