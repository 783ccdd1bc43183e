// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"fmt"
	"io"

	"github.com/524D/peakexport/internal/instrument"
	"github.com/524D/peakexport/internal/peakdata"
)

// debugDumpScans prints, for each scan in scanRange, the number of peaks
// before and after filtering together with the scan maximum and
// retention time.
func debugDumpScans(w io.Writer, path string, scanRange string, filter peakdata.FilterConfig) error {
	f, err := instrument.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	first, last, err := f.ScanRange()
	if err != nil {
		return err
	}
	debugMin, debugMax, err := parseIntRange(scanRange, first, last)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "File:%s scans:%d-%d\n", path, first, last)
	for n := debugMin; n <= debugMax; n++ {
		kind, err := f.ScanKind(n)
		if err != nil {
			return err
		}
		var peaks []peakdata.RawPeak
		if kind == peakdata.Centroid {
			peaks, err = f.LabelPeaks(n)
		} else {
			peaks, err = f.ProfilePeaks(n)
		}
		id, _ := f.ScanID(n)
		if err != nil {
			fmt.Fprintf(w, "Scan:%d id:%s %s error:%v\n", n, id, kind, err)
			continue
		}
		msLevel, _ := f.MSLevel(n)
		rt, _ := f.RetentionTime(n)

		maxIntens := peakdata.MaxIntensity(peaks)
		kept := 0
		for _, p := range peaks {
			if filter.Keep(p, maxIntens) {
				kept++
			}
		}
		fmt.Fprintf(w, "Scan:%d id:%s ms%d %s rt:%f peaks:%d kept:%d maxIntens:%f\n",
			n, id, msLevel, kind, rt, len(peaks), kept, maxIntens)
	}
	return nil
}
