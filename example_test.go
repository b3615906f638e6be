package fyaml

import (
	"fmt"
	"io"
	"strings"
)

func ExampleParseString() {
	doc, err := ParseString("servers:\n  - host: alpha\n    port: 80\n")
	if err != nil {
		panic(err)
	}
	fmt.Println(doc.At("/servers/0/host").Scalar())
	port, _ := doc.At("/servers/0/port").Int()
	fmt.Println(port)
	// Output:
	// alpha
	// 80
}

func ExampleEmitString() {
	doc, _ := ParseString("a: 1\nb: [2, 3]\n")
	out, _ := EmitString(doc, EmitJSONOneline)
	fmt.Print(out)
	// Output: {"a":1,"b":[2,3]}
}

func ExampleUnmarshal() {
	var cfg struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	}
	if err := Unmarshal([]byte("name: demo\nport: 80\n"), &cfg); err != nil {
		panic(err)
	}
	fmt.Println(cfg.Name, cfg.Port)
	// Output: demo 80
}

func ExampleMarshal() {
	out, _ := Marshal(map[string]any{
		"name":  "demo",
		"ports": []int{80, 443},
	})
	fmt.Print(string(out))
	// Output:
	// name: demo
	// ports:
	//   - 80
	//   - 443
}

func ExampleParser_NextEvent() {
	p := NewParser(InputString("a: 1"))
	for {
		ev, err := p.NextEvent()
		if err != nil || ev == nil {
			break
		}
		fmt.Println(ev)
		if ev.Type == EventStreamEnd {
			break
		}
	}
	// Output:
	// StreamStart
	// DocumentStart(implicit)
	// MappingStart
	// Scalar("a")
	// Scalar("1")
	// MappingEnd
	// DocumentEnd(implicit)
	// StreamEnd
}

func ExampleDecoder_Decode() {
	dec := NewDecoder(strings.NewReader("a: 1\n---\na: 2\n"))
	for {
		var v map[string]int
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		fmt.Println(v["a"])
	}
	// Output:
	// 1
	// 2
}
