// sinklog builds a logger from flags and/or a configuration document and
// logs one message through it.
//
// # Usage
//
//	sinklog [FLAGS] MESSAGE
//
// # Flags
//
//	-c, --config FILE        Configuration document (.json, .yaml, .yml, .toml)
//	-k, --key PATH           Dotted key path of the logger section
//	-r, --remote             Use the remote logger
//	-d, --destination ADDR   Aggregation service address (implies --remote)
//	-s, --severity NAME      Severity of the message (default: information)
//	-f, --format TEMPLATE    Line template for the local logger
//	    --console NAME       Enable console output for a severity (repeatable)
//	    --file NAME=PATH     Add a file sink for a severity (repeatable)
//	-v, --verbose            Print diagnostics to stderr
//
// # Examples
//
//	sinklog --console error --file error=app.log -s error "disk failed"
//	sinklog -c logging.yaml -k loggers.app -s warning "low memory"
//	sinklog -d collector:8080 --file error=app.log -s error "remote line"
package main
