// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJsonHandler(t *testing.T) {
	testCases := []struct {
		Name   string
		Attr   slog.Attr
		Key    string
		Expect any
	}{
		{
			Name:   "bool",
			Attr:   Bool("value", true),
			Key:    "value",
			Expect: true,
		},
		{
			Name:   "duration",
			Attr:   Duration("value", 5*time.Second),
			Key:    "value",
			Expect: float64(5 * time.Second),
		},
		{
			Name:   "error",
			Attr:   Error(errors.New("hello, world")),
			Key:    "error",
			Expect: "hello, world",
		},
		{
			Name:   "string",
			Attr:   String("value", "world"),
			Key:    "value",
			Expect: "world",
		},
		{
			Name:   "int",
			Attr:   Int("value", 1),
			Key:    "value",
			Expect: float64(1),
		},
		{
			Name:   "remote addr",
			Attr:   RemoteAddr(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}),
			Key:    "remote_addr",
			Expect: "127.0.0.1:8080",
		},
		{
			Name:   "nil remote addr",
			Attr:   RemoteAddr(nil),
			Key:    "remote_addr",
			Expect: "",
		},
		{
			Name:   "method",
			Attr:   Method("GET"),
			Key:    "http.method",
			Expect: "GET",
		},
		{
			Name:   "path",
			Attr:   Path("/index.html"),
			Key:    "http.path",
			Expect: "/index.html",
		},
		{
			Name:   "status",
			Attr:   Status(404),
			Key:    "http.status",
			Expect: float64(404),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
				ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
					if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
						return slog.Attr{}
					}
					return a
				},
			}))
			log.Info("", testCase.Attr)

			var res map[string]any
			err := json.Unmarshal(buf.Bytes(), &res)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, testCase.Expect, res[testCase.Key]) {
				return
			}
		})
	}
}
