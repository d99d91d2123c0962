// Package config holds the boot parameters of a kernel instance,
// read from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	db "armos/debug"
	"armos/kerr"
)

const (
	ARMOSCONFIG = "ARMOSCONFIG"

	NCPU_MAX = 64
)

type Param struct {
	Ncpu  int    `yaml:"ncpu"`
	Nproc int    `yaml:"nproc"`
	Mem   string `yaml:"mem"` // physical memory, e.g. "64MiB"
	Ntlb  int    `yaml:"ntlb"`
	Debug string `yaml:"debug"`

	memsz uint64
}

func NewParam() *Param {
	return &Param{
		Ncpu:  4,
		Nproc: 64,
		Mem:   "128MiB",
		Ntlb:  64,
		Debug: os.Getenv(db.ARMOSDEBUG),
	}
}

// ReadParam reads pn on top of the defaults.
func ReadParam(pn string) (*Param, error) {
	param := NewParam()
	file, err := os.Open(pn)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	d := yaml.NewDecoder(file)
	if err := d.Decode(param); err != nil {
		return nil, err
	}
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return param, nil
}

// ReadParamEnv reads the file named by ARMOSCONFIG, if set.
func ReadParamEnv() (*Param, error) {
	pn := os.Getenv(ARMOSCONFIG)
	if pn == "" {
		param := NewParam()
		return param, param.Validate()
	}
	return ReadParam(pn)
}

func (p *Param) Validate() error {
	if p.Ncpu < 1 || p.Ncpu > NCPU_MAX {
		return kerr.NewErr(kerr.TErrInval, fmt.Sprintf("ncpu %d", p.Ncpu))
	}
	if p.Nproc < 1 {
		return kerr.NewErr(kerr.TErrInval, fmt.Sprintf("nproc %d", p.Nproc))
	}
	if p.Ntlb < 0 {
		return kerr.NewErr(kerr.TErrInval, fmt.Sprintf("ntlb %d", p.Ntlb))
	}
	sz, err := humanize.ParseBytes(p.Mem)
	if err != nil {
		return kerr.NewErrError(kerr.TErrInval, fmt.Sprintf("mem %q", p.Mem), err)
	}
	p.memsz = sz
	return nil
}

// MemSize returns the physical memory size in bytes; valid after
// Validate.
func (p *Param) MemSize() uint64 {
	return p.memsz
}

func (p *Param) String() string {
	return fmt.Sprintf("{ncpu %d nproc %d mem %v ntlb %d debug %q}", p.Ncpu, p.Nproc, humanize.IBytes(p.memsz), p.Ntlb, p.Debug)
}
