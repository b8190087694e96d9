package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNextParsesRows(t *testing.T) {
	path := writeCSV(t, `timestamp,symbol,price,volume
1000,MEME,1.0,500
2000,MEME,1.1,750
`)

	f, err := OpenCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tick, ok, err := f.Next()
	if err != nil || !ok {
		t.Fatalf("first tick: ok=%v err=%v", ok, err)
	}
	if tick.Timestamp != 1000 || tick.Symbol != "MEME" || tick.Price != 1.0 || tick.Volume != 500 {
		t.Fatalf("tick = %+v", tick)
	}

	if _, ok, _ := f.Next(); !ok {
		t.Fatal("missing second tick")
	}
	if _, ok, _ := f.Next(); ok {
		t.Fatal("expected EOF")
	}
}

func TestNextSkipsShortAndBlankRows(t *testing.T) {
	path := writeCSV(t, `1000,MEME,1.0,500
2000,MEME
3000,MEME,1.2,100
`)

	f, err := OpenCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	count := 0
	for {
		_, ok, err := f.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("ticks = %d, want 2 (short row skipped)", count)
	}
}

func TestNextRejectsBadNumbers(t *testing.T) {
	path := writeCSV(t, "1000,MEME,not-a-price,500\n")

	f, err := OpenCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, _, err := f.Next(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadSeriesMergesTimestamps(t *testing.T) {
	path := writeCSV(t, `timestamp,symbol,price,volume
1000,MEME,1.0,500
1000,DOGE,0.1,900
2000,MEME,1.1,750
`)

	series, err := LoadSeries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Prices["MEME"] != 1.0 || series[0].Prices["DOGE"] != 0.1 {
		t.Fatalf("merged bar = %+v", series[0])
	}
	if series[0].Volumes["DOGE"] != 900 {
		t.Fatalf("merged volumes = %+v", series[0].Volumes)
	}
	if series[1].Timestamp != 2000 {
		t.Fatalf("second bar = %+v", series[1])
	}
}

func TestLoadSeriesVolumeOptional(t *testing.T) {
	path := writeCSV(t, "1000,MEME,1.0\n")

	series, err := LoadSeries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0].Volumes["MEME"] != 0 {
		t.Fatalf("series = %+v", series)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := OpenCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error")
	}
}
