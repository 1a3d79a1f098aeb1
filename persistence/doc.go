// Package persistence defines the binary cache format and the record codec.
//
// # Layout
//
// Every multi-byte field is little-endian, counts are u64 and values are f64,
// independent of the host word size. There is no padding:
//
//	int32  magic (= 8093)
//	u64    spectrum_count
//	u64    chromatogram_count
//	spectrum_count x {
//	    u64  peak_count
//	    i32  ms_level
//	    f64  retention_time
//	    f64[peak_count] mz_values
//	    f64[peak_count] intensity_values
//	}
//	chromatogram_count x {
//	    u64  point_count
//	    f64[point_count] rt_values
//	    f64[point_count] intensity_values
//	}
//
// Chromatogram records carry no level or retention time field.
//
// # Codec
//
// The Encode/Decode functions are pure transformations between records and a
// byte stream; they never seek. Record sizes are exposed through
// SpectrumRecordSize and ChromatogramRecordSize so that the indexer can skip
// records with exactly the arithmetic the codec uses.
//
// Value arrays are copied in bulk: on little-endian hosts the []float64 backing
// array is viewed as bytes without conversion; other hosts fall back to a
// per-value conversion. See values.go.
package persistence
