package board

import (
	"fmt"

	"github.com/cortexsim/armboard/internal/addrspace"
	"github.com/cortexsim/armboard/internal/clockbus"
	"github.com/cortexsim/armboard/internal/cpuengine"
	"github.com/cortexsim/armboard/internal/memregion"
	"github.com/cortexsim/armboard/internal/peripheral"
)

// GPIOFactory builds one family's GPIO peripheral for a named port
// (e.g. "GPIOA", "PORTF"), given the configured port mask from pins.
type GPIOFactory func(portName string, mask uint32) peripheral.Peripheral

// interruptSource is satisfied by any peripheral embedding
// peripheral.Base, which is every concrete peripheral in this module.
// Board composition wires it to the interrupt controller per §4.7
// step 6 so a GPIO port's RaiseInterrupt reaches the CPU sink instead
// of silently no-opping against an unattached Base.
type interruptSource interface {
	Attach(sink peripheral.InterruptSink, source string)
}

// Generic assembles C1-C6 from a Config the way every concrete board's
// constructor does in §4.7, parameterized only by the family-specific
// GPIO peripheral factory. Concrete board packages (stm32f4,
// stm32c031, tm4c123) call this from their own constructors and only
// add family-specific wiring (memory-access-model selection, extra
// peripherals) on top.
type Generic struct {
	name   string
	space  *addrspace.AddressSpace
	cpu    *cpuengine.CortexM
	clock  *clockbus.Clock
	irqCtl *clockbus.InterruptController
	engine cpuengine.Engine

	gpioPorts map[string]peripheral.Peripheral
	sysctl    *peripheral.SysCtl
}

// NewGeneric builds the shared portion of a board: address space,
// bit-band aliases, execution engine + CPU, sysctl, and GPIO ports,
// subscribing everything to the clock and interrupt controller.
func NewGeneric(name string, cfg Config, gpioFactory GPIOFactory, frequencyHz uint64) (*Generic, error) {
	mem := cfg.Memory

	flash := memregion.NewFlash(mem.FlashBase, mem.FlashSize)
	ram := memregion.NewRAM(mem.SRAMBase, mem.SRAMSize)
	mmio := memregion.NewMMIOWindow(mem.PeriphBase, mem.PeriphSize)
	space := addrspace.New(flash, ram, mmio)

	if mem.BitbandSize > 0 {
		sramAlias := memregion.NewBitBandAlias(mem.BitbandBase, mem.BitbandSize/2, mem.SRAMBase, mem.SRAMSize, false)
		periphAlias := memregion.NewBitBandAlias(mem.BitbandBase+mem.BitbandSize/2, mem.BitbandSize/2, mem.PeriphBase, mem.PeriphSize, true)
		space.AddBitBandAlias(sramAlias)
		space.AddBitBandAlias(periphAlias)
	}

	engine, err := cpuengine.NewUnicornEngine()
	if err != nil {
		return nil, err
	}
	cpu, err := cpuengine.New(engine, space, mem.FlashBase, mem.FlashSize, mem.SRAMBase, mem.SRAMSize, mem.PeriphBase, mem.PeriphSize)
	if err != nil {
		return nil, err
	}

	clock := clockbus.New(frequencyHz)
	irqCtl := clockbus.NewInterruptController()
	irqCtl.AttachClock(clock)
	irqCtl.AttachCPU(cpu)
	clock.Subscribe(cpuTickAdapter{cpu})

	var sysctl *peripheral.SysCtl
	if len(cfg.SysCtl.Registers) > 0 {
		sysctl = peripheral.NewSysCtl("sysctl", cfg.SysCtl.Registers)
		if err := space.RegisterPeripheral(cfg.SysCtl.Base, sysctl.Size(), sysctl); err != nil {
			return nil, err
		}
		clock.Subscribe(sysctl)
	}

	gpioPorts := make(map[string]peripheral.Peripheral, len(cfg.GPIO.Ports))
	for portName, base := range cfg.GPIO.Ports {
		mask := cfg.Pins.PinMasks[portName]
		if mask == 0 {
			mask = 0xFFFFFFFF
		}
		p := gpioFactory(portName, mask)
		if err := space.RegisterPeripheral(base, p.Size(), p); err != nil {
			return nil, fmt.Errorf("registering GPIO port %s: %w", portName, err)
		}
		if src, ok := p.(interruptSource); ok {
			src.Attach(irqCtl, portName)
		}
		clock.Subscribe(p)
		gpioPorts[portName] = p
	}

	return &Generic{
		name: name, space: space, cpu: cpu, clock: clock, irqCtl: irqCtl, engine: engine,
		gpioPorts: gpioPorts, sysctl: sysctl,
	}, nil
}

// cpuTickAdapter lets CortexM satisfy clockbus.Subscriber without that
// package importing cpuengine; the CPU does not yet consume batched
// ticks for anything beyond the future cycle-accurate work called out
// as a non-goal, so Tick is presently a no-op forwarding point.
type cpuTickAdapter struct {
	cpu *cpuengine.CortexM
}

func (a cpuTickAdapter) Tick(cycles uint64) {}

func (g *Generic) Name() string                                       { return g.name }
func (g *Generic) CPU() *cpuengine.CortexM                            { return g.cpu }
func (g *Generic) AddressSpace() *addrspace.AddressSpace              { return g.space }
func (g *Generic) Clock() *clockbus.Clock                             { return g.clock }
func (g *Generic) InterruptController() *clockbus.InterruptController { return g.irqCtl }
func (g *Generic) GPIOPort(name string) (peripheral.Peripheral, bool) {
	p, ok := g.gpioPorts[name]
	return p, ok
}

func (g *Generic) Reset() error {
	g.space.Reset()
	g.clock.Reset()
	g.irqCtl.Reset()
	return g.cpu.Reset()
}

func (g *Generic) Step(cycles uint64) error {
	for i := uint64(0); i < cycles; i++ {
		if err := g.cpu.Step(); err != nil {
			return err
		}
	}
	g.clock.Tick(cycles)
	return nil
}

func (g *Generic) Read(addr uint32, size int) (uint32, error) {
	return g.space.Read(addr, size)
}

func (g *Generic) Write(addr uint32, size int, value uint32) error {
	return g.space.Write(addr, size, value)
}

func (g *Generic) Close() error {
	return g.cpu.Close()
}
