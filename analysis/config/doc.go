// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault] to obtain the default
configuration. There is no global configuration: the config is passed to the components that need it.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	options:
	  log-level: 4
	  max-iterations: 10000
	  max-passes: 8
	  parallelism: 2
	  method-filter: "^(compute|run)"

	optimizations:
	  - constants
	  - liveness

# Logging

The [LogGroup] provides leveled loggers. The level is set by the log-level option, from 1 (errors only) to 5
(solver traces).
*/
package config
