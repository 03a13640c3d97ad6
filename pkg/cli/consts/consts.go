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

// Package consts provides definitions of constants
package consts

var (
	// ConfigFilename is the name of the config file
	ConfigFilename = "scriptoriumrc"
	// DebugEnvName is the environment variable turning on debug output
	DebugEnvName = "SCRIPTORIUM_DEBUG"
	// DBPathEnvName is the environment variable overriding the database path
	DBPathEnvName = "SCRIPTORIUM_DB_PATH"
)
