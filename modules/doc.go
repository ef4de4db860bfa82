// Package modules provides a minimal built-in module catalog — print, var,
// sleep, call, blocker, spawn — sufficient to exercise the Module Runtime
// Interface end-to-end and to run a handful of worked scheduling scenarios.
// A real configuration-module catalog (DHCP, netlink, iptables, ...) is out
// of scope; these exist only to give the engine something concrete to
// schedule.
package modules
