package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/torosent/nanofire/internal/suite"
)

// Sinks are written by every workload so the compiler cannot prove the work
// dead and strip it out of the measured loop.
var (
	sinkInt    uint64
	sinkString string
	sinkBool   bool
	sinkBytes  [sha256.Size]byte
)

type builtin struct {
	name string
	desc string
	fn   func()
}

// builtins is the workload registry, in display order.
var builtins = []builtin{
	{"fib", "Recursive Fibonacci of 20", workloadFib},
	{"sum", "Integer accumulation over 1024 elements", workloadSum},
	{"string_build", "strings.Builder append loop", workloadStringBuild},
	{"map_churn", "Map fill and drain cycle", workloadMapChurn},
	{"json_field", "JSON field extraction with gjson", workloadJSONField},
	{"yaml_decode", "YAML document decode", workloadYAMLDecode},
	{"sha256", "SHA-256 digest of a 60-byte payload", workloadSHA256},
}

// builtinWorkloads returns every registered workload.
func builtinWorkloads() []suite.Workload {
	workloads := make([]suite.Workload, 0, len(builtins))
	for _, b := range builtins {
		workloads = append(workloads, suite.Workload{Name: b.name, Fn: b.fn})
	}
	return workloads
}

// selectWorkloads resolves requested names against the registry, preserving
// request order. An empty request selects everything.
func selectWorkloads(names []string) ([]suite.Workload, error) {
	if len(names) == 0 {
		return builtinWorkloads(), nil
	}
	byName := make(map[string]builtin, len(builtins))
	for _, b := range builtins {
		byName[b.name] = b
	}
	selected := make([]suite.Workload, 0, len(names))
	for _, name := range names {
		b, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown workload %q: run with --list to see what is available", name)
		}
		selected = append(selected, suite.Workload{Name: b.name, Fn: b.fn})
	}
	return selected, nil
}

// listWorkloads prints the registry, one workload per line.
func listWorkloads(w io.Writer) {
	for _, b := range builtins {
		fmt.Fprintf(w, "%-14s %s\n", b.name, b.desc)
	}
}

func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

func workloadFib() {
	sinkInt = uint64(fib(20))
}

func workloadSum() {
	var total uint64
	for i := 0; i < 1024; i++ {
		total += uint64(i) * 2
	}
	sinkInt = total
}

func workloadStringBuild() {
	var b strings.Builder
	for i := 0; i < 64; i++ {
		b.WriteString("nanofire")
	}
	sinkString = b.String()
}

func workloadMapChurn() {
	m := make(map[int]int, 64)
	for i := 0; i < 64; i++ {
		m[i] = i * i
	}
	for i := 0; i < 64; i++ {
		delete(m, i)
	}
	sinkInt = uint64(len(m))
}

const sampleJSON = `{"user":{"id":42,"name":"ada","tags":["fast","small"]},"active":true}`

func workloadJSONField() {
	sinkString = gjson.Get(sampleJSON, "user.name").String()
	sinkBool = gjson.Get(sampleJSON, "active").Bool()
}

const sampleYAML = `
server:
  host: localhost
  port: 8080
limits:
  - 10
  - 20
  - 30
`

type yamlDoc struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Limits []int `yaml:"limits"`
}

func workloadYAMLDecode() {
	var doc yamlDoc
	err := yaml.Unmarshal([]byte(sampleYAML), &doc)
	sinkBool = err == nil
	sinkInt = uint64(doc.Server.Port + len(doc.Limits))
}

var hashInput = []byte("nanofire benchmark payload 0123456789abcdef0123456789abcdef")

func workloadSHA256() {
	sinkBytes = sha256.Sum256(hashInput)
}
