package csv

import (
	"sync"
	"testing"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
)

func testTarget() model.Target {
	return model.Target{Exchange: "binance", Symbol: "BTCUSDT", Timeframe: "1m", Enabled: true}
}

func candles(ts ...int64) model.Series {
	s := make(model.Series, len(ts))
	for i, t := range ts {
		s[i] = model.Candle{TS: t, Open: 1, High: 2, Low: 0.5, Close: float64(t), Volume: 1}
	}
	return s
}

func TestMergePersistsSortedDeduped(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tgt := testTarget()

	if _, err := st.Merge(tgt, candles(3, 1, 2)); err != nil {
		t.Fatal(err)
	}
	merged, err := st.Merge(tgt, candles(2, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 3, 4}
	if len(merged) != len(want) {
		t.Fatalf("want %d candles, got %d", len(want), len(merged))
	}
	for i, ts := range want {
		if merged[i].TS != ts {
			t.Errorf("index %d: want ts %d, got %d", i, ts, merged[i].TS)
		}
	}

	loaded, err := st.Load(tgt)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("persisted series invalid: %v", err)
	}
	if len(loaded) != 4 {
		t.Errorf("want 4 persisted candles, got %d", len(loaded))
	}
}

func TestMergeIdempotent(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tgt := testTarget()
	batch := candles(1, 2, 3)

	first, err := st.Merge(tgt, batch)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Merge(tgt, batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("merge not idempotent: %d vs %d candles", len(first), len(second))
	}
}

func TestLastWriteWinsOnCollision(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tgt := testTarget()

	if _, err := st.Merge(tgt, model.Series{{TS: 1, Close: 10}}); err != nil {
		t.Fatal(err)
	}
	merged, err := st.Merge(tgt, model.Series{{TS: 1, Close: 20}})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 || merged[0].Close != 20 {
		t.Fatalf("want single candle with close 20, got %+v", merged)
	}
}

func TestTail(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tgt := testTarget()
	if _, err := st.Merge(tgt, candles(1, 2, 3, 4, 5)); err != nil {
		t.Fatal(err)
	}
	tail, err := st.Tail(tgt, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].TS != 4 || tail[1].TS != 5 {
		t.Fatalf("want last two candles, got %+v", tail)
	}
}

func TestLoadMissingFile(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	series, err := st.Load(testTarget())
	if err != nil {
		t.Fatalf("missing file should be empty series: %v", err)
	}
	if len(series) != 0 {
		t.Fatalf("want empty series, got %d candles", len(series))
	}
}

func TestWriteDerivedLengthMismatch(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	res := indicator.TrailingStopResult{
		Src: []float64{1}, MA: []float64{1}, Stop: []float64{1},
		Buy: []bool{false}, Sell: []bool{false},
	}
	if err := st.WriteDerived(testTarget(), candles(1, 2), res); err == nil {
		t.Fatal("want length mismatch error")
	}
}

func TestConcurrentMergesDistinctTargets(t *testing.T) {
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		sym := string(rune('A'+i)) + "USDT"
		go func() {
			defer wg.Done()
			tgt := model.Target{Exchange: "binance", Symbol: sym, Timeframe: "1m"}
			for j := 0; j < 20; j++ {
				if _, err := st.Merge(tgt, candles(int64(j))); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
