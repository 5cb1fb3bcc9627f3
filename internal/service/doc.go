// Package service contains the application services that sit between the
// HTTP handlers and the generation, storage, and persistence layers. The
// services own request orchestration; handlers only translate HTTP.
package service
