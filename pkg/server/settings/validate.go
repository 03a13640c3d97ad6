/* Copyright 2025 Dnote Authors
 *
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

package settings

import (
	"strconv"
	"strings"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/pkg/errors"
)

func normalizeBool(value string) (string, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidValue, "'%s' is not a boolean", value)
	}

	return strconv.FormatBool(b), nil
}

func normalizeOneOf(value string, choices ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, c := range choices {
		if v == c {
			return v, nil
		}
	}

	return "", errors.Wrapf(ErrInvalidValue, "'%s' must be one of %s", value, strings.Join(choices, ", "))
}

// Normalize validates the value for the given key and returns it in its
// stored form
func Normalize(key, value string) (string, error) {
	switch key {
	case database.SettingAutoSync, database.SettingEditAndView:
		return normalizeBool(value)
	case database.SettingAutoSyncTime:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 {
			return "", errors.Wrapf(ErrInvalidValue, "'%s' is not a whole number of seconds greater than zero", value)
		}
		return strconv.Itoa(n), nil
	case database.SettingColorScheme:
		return normalizeOneOf(value, ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
	case database.SettingDefaultSyntax:
		return normalizeOneOf(value, SyntaxMarkdown, SyntaxAsciiDoc, SyntaxHTML)
	}

	return "", errors.Wrapf(ErrUnknownKey, "'%s'", key)
}
