/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package utils

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// FieldLogger logs a message followed by alternating key/value pairs,
// e.g. Info("entities found", "count", 3).
type FieldLogger struct {
	logger *logrus.Logger
}

// NewFieldLogger returns a FieldLogger writing to the named logger.
func NewFieldLogger(name string) *FieldLogger {
	return &FieldLogger{logger: NewLogger(name)}
}

func (l *FieldLogger) Debug(msg string, fields ...interface{}) {
	l.entry(fields).Debug(msg)
}

func (l *FieldLogger) Info(msg string, fields ...interface{}) {
	l.entry(fields).Info(msg)
}

func (l *FieldLogger) Warn(msg string, fields ...interface{}) {
	l.entry(fields).Warn(msg)
}

func (l *FieldLogger) Error(msg string, fields ...interface{}) {
	l.entry(fields).Error(msg)
}

// SetLevel changes the level of the underlying logger.
func (l *FieldLogger) SetLevel(level string) {
	l.logger.SetLevel(ParseLogLevel(level))
}

func (l *FieldLogger) entry(fields []interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
	return l.logger.WithFields(data)
}

func sortedKeys(m logrus.Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
