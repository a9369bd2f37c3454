// Package monitoring serves the state of running simulations over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sarchlab/trialsim/monitoring/web"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a simulation into a server that reports its progress,
// resource usage and registered objects.
type Monitor struct {
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	rootsLock sync.Mutex
	roots     map[string]any

	profileDuration time.Duration
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		roots:           make(map[string]any),
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRoot exposes an object under a name. Its fields can be inspected
// through the field API.
func (m *Monitor) RegisterRoot(name string, root any) {
	m.rootsLock.Lock()
	defer m.rootsLock.Unlock()

	m.roots[name] = root
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/roots", m.listRoots)
	r.HandleFunc("/api/root/{name}", m.rootDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.router()
	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return url, nil
}

func (m *Monitor) findRootOr404(w http.ResponseWriter, name string) any {
	m.rootsLock.Lock()
	root, ok := m.roots[name]
	m.rootsLock.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Root not found"))
		dieOnErr(err)
	}

	return root
}

func (m *Monitor) listRoots(w http.ResponseWriter, _ *http.Request) {
	m.rootsLock.Lock()
	names := make([]string, 0, len(m.roots))
	for name := range m.roots {
		names = append(names, name)
	}
	m.rootsLock.Unlock()

	sort.Strings(names)

	bytes, err := json.Marshal(names)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) rootDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	root := m.findRootOr404(w, name)
	if root == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	RootName  string `json:"root_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	root := m.findRootOr404(w, req.RootName)
	if root == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

// ProgressBars returns the status of the bars in progress.
func (m *Monitor) ProgressBars() []ProgressBarStatus {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}

	return bars
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(m.ProgressBars())
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
