// Package domain resolves Walls survey records into shot and unit-context events.
//
// # Data Source
//
// An upstream tokenizer reads Walls .SRV files and publishes one flat JSON
// record per meaningful line to the Kafka source topic. Records are keyed by
// file so that every line of a file lands on the same partition, in order.
//
//	{"file":"cave.srv","line":3,"kind":"units","options":[{"name":"feet"},{"name":"decl","value":"2.5"}]}
//	{"file":"cave.srv","line":4,"kind":"shot","from":"A1","to":"A2","distance":"10.5","fs_azimuth":"45","fs_inclination":"-3","lruds":["1","2","3","4"]}
//
// # Measurement Conventions
//
// Measurements are plain decimal strings in whatever units the file has
// declared so far. "--" or an empty string means not recorded.
//
// Azimuths:
//
//	frontsight + inca
//	backsight + incab, turned 180° unless typeab is "corrected"
//	both present: averaged on the circle unless typeab carries ",x"
//	result + decl - grid, wrapped into [0, 360)
//
// Inclinations:
//
//	frontsight + incv, backsight + incvb
//	uncorrected backsights are negated before averaging
//	neither present: 0° (level)
//
// A shot whose sights disagree by more than the configured tolerance still
// resolves, with a warning attached.
//
// Rectangular shots carry east, north and up offsets instead; distance and
// angles are derived from them and the rect correction rotates the azimuth.
//
// # ID Generation
//
// Shot IDs are deterministic SHA-256 hashes of file|line|from|to, so replaying
// a file produces the same IDs. See [generateID]. [UnitsKey] hashes a unit
// context so consumers can group shots measured under identical settings.
package domain
