// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package request

import (
	"fmt"
	"strings"
)

func ExampleParse() {
	in := "get /index.html HTTP/1.1\r\nHost:\texample.com\r\nContent-Length: 5\r\n\r\nhello"

	req, err := Parse(strings.NewReader(in))
	if err != nil {
		fmt.Println(err)
		return
	}

	host, _ := req.Header.Get("host")
	fmt.Println(req.Method, req.Path, req.ProtocolMinorVersion)
	fmt.Println(host)
	fmt.Println(string(req.Body))
	// Output: GET /index.html 1
	// example.com
	// hello
}
