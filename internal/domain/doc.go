// Package domain defines the core business entities of the sticker
// generator: the structured generation request, the persisted image
// record, and the daily usage counter. Entities validate themselves and
// carry no persistence or transport concerns.
package domain
