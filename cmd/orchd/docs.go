package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           orchd API
// @version         1.0
// @description     HTTP API for model orchestration: loading, unloading and inference under a memory budget.
//
// @contact.name   orchd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
