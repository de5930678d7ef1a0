package bus

import "fmt"

// FormatTick matches the TICK schema: wallclock, t_ms, tick_num, leading_ms,
// duration_ms, peak, baseline, threshold (spec §6.3).
func FormatTick(tMs float64, tickNum int, leadingMs, durationMs, peak, baseline, threshold float64) string {
	return fmt.Sprintf("%.3f,%d,%.3f,%.3f,%.6f,%.6f,%.6f", tMs, tickNum, leadingMs, durationMs, peak, baseline, threshold)
}

// FormatMark matches the MARK schema: wallclock, t_ms, marker_num, sec,
// expected, accum_energy, duration_ms, since_last_sec, baseline, threshold.
func FormatMark(tMs float64, markerNum, sec int, expected bool, accumEnergy, durationMs, sinceLastSec, baseline, threshold float64) string {
	return fmt.Sprintf("%.3f,%d,%d,%t,%.6f,%.3f,%.3f,%.6f,%.6f", tMs, markerNum, sec, expected, accumEnergy, durationMs, sinceLastSec, baseline, threshold)
}

// FormatSync matches the SYNC schema: wallclock, t_ms, marker_count, state,
// interval_s, delta_ms, tick_dur_ms, marker_dur_ms.
func FormatSync(tMs float64, markerCount int, state string, intervalS, deltaMs, tickDurMs, markerDurMs float64) string {
	return fmt.Sprintf("%.3f,%d,%s,%.3f,%.3f,%.3f,%.3f", tMs, markerCount, state, intervalS, deltaMs, tickDurMs, markerDurMs)
}

// FormatCorr matches the CORR schema: wallclock, t_ms, chain_len, mean_ms,
// stddev_ms, confidence, epoch_offset_ms.
func FormatCorr(tMs float64, chainLen int, meanMs, stddevMs, confidence, epochOffsetMs float64) string {
	return fmt.Sprintf("%.3f,%d,%.3f,%.3f,%.4f,%.3f", tMs, chainLen, meanMs, stddevMs, confidence, epochOffsetMs)
}

// FormatBCDS matches the BCDS schema: wallclock, t_ms, sec_in_min,
// symbol in {0,1,M}, pulse_ms, confidence.
func FormatBCDS(tMs float64, secInMin int, symbol byte, pulseMs, confidence float64) string {
	return fmt.Sprintf("%.3f,%d,%c,%.3f,%.4f", tMs, secInMin, symbol, pulseMs, confidence)
}

// FormatCarrier matches the CARR/T500/T600 schema: wallclock, t_ms,
// measured_hz, offset_hz, offset_ppm, snr_db.
func FormatCarrier(tMs, measuredHz, offsetHz, offsetPPM, snrDB float64) string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f,%.2f", tMs, measuredHz, offsetHz, offsetPPM, snrDB)
}
