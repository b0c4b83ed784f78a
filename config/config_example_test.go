// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "fmt"

func ExampleRead() {
	m, err := Read(
		Map{"port": "80", "pid_file": "/var/run/tinyhttpd.pid"},
		Map{"port": "8080"},
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg struct {
		Port    string `config:"port"`
		PIDFile string `config:"pid_file"`
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(cfg.Port)
	fmt.Println(cfg.PIDFile)
	// Output: 8080
	// /var/run/tinyhttpd.pid
}
