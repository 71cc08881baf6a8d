package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// onceValue rejects a flag given more than once.
type onceValue struct {
	pflag.Value
	name string
	set  bool
}

func (o *onceValue) Set(s string) error {
	if o.set {
		return fmt.Errorf("flag --%s may only be given once", o.name)
	}
	o.set = true
	return o.Value.Set(s)
}

// prefixValue is an optional prefix length.
type prefixValue struct {
	p **int
}

func newPrefixValue(p **int) *prefixValue {
	return &prefixValue{p: p}
}

func (v *prefixValue) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("prefix needs to be a number [0, 32] inclusive")
	}
	*v.p = &n
	return nil
}

func (v *prefixValue) String() string {
	if *v.p == nil {
		return ""
	}
	return strconv.Itoa(**v.p)
}

func (v *prefixValue) Type() string {
	return "int"
}

// maskValue is an optional subnet mask in dotted form.
type maskValue struct {
	p *net.IP
}

func newMaskValue(p *net.IP) *maskValue {
	return &maskValue{p: p}
}

func (v *maskValue) Set(s string) error {
	ip := net.ParseIP(s)
	if ip == nil {
		return fmt.Errorf("subnet needs to be a valid IP address")
	}
	*v.p = ip
	return nil
}

func (v *maskValue) String() string {
	if *v.p == nil {
		return ""
	}
	return v.p.String()
}

func (v *maskValue) Type() string {
	return "mask"
}
