// Package analysis inspects recorded run traces.
//
//   - [PowerSpectrum]: magnitude spectrum of a series, Hann windowed
//   - [DominantFrequency]: strongest oscillation in a series, in Hz
//   - [Summarize]: min, max, mean and standard deviation
//
// Traces are sampled once per engine frame, so a series recorded at a
// 16ms frame time has a sample rate of 62.5 Hz:
//
//	freq := metrics.Series(trace, metrics.TotalEnergy)
//	hz, power := analysis.DominantFrequency(freq, 62.5)
package analysis
