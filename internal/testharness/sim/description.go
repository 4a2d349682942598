package sim

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Register layout of the simulated device. Addresses are stable so the
// description document and the write hooks agree.
const (
	regWidth           = 0x0000
	regHeight          = 0x0004
	regPayloadSize     = 0x0008
	regPixelFormat     = 0x000C
	regExposureTime    = 0x0010
	regGain            = 0x0014
	regGainAuto        = 0x0018
	regTriggerMode     = 0x001C
	regTriggerSource   = 0x0020
	regTriggerSoftware = 0x0024
	regAcquisitionStart = 0x0028
	regAcquisitionStop  = 0x002C
	regTLParamsLocked   = 0x0030
	regTemperature      = 0x0034

	// registerSpace is the size of the plain register region.
	registerSpace = 0x1000

	// descriptionAddress is where the description document is mapped.
	descriptionAddress = 0x10000
)

// Pixel format enumeration values as stored in regPixelFormat.
const (
	pfMono8  = 1
	pfMono12 = 5
	pfRGB8   = 20
)

// Description is the register-description document of the simulated
// device.
var Description = []byte(`<?xml version="1.0" encoding="utf-8"?>
<RegisterDescription ModelName="SimCam" VendorName="GencamProject">
  <Integer Name="Width">
    <Description>Image width in pixels.</Description>
    <Address>0x0000</Address>
    <Min>1</Min>
    <Max>4096</Max>
    <Inc>1</Inc>
    <LockedBy Feature="TLParamsLocked" Unless="0"/>
  </Integer>
  <Integer Name="Height">
    <Description>Image height in pixels.</Description>
    <Address>0x0004</Address>
    <Min>1</Min>
    <Max>3072</Max>
    <Inc>1</Inc>
    <LockedBy Feature="TLParamsLocked" Unless="0"/>
  </Integer>
  <Integer Name="PayloadSize">
    <Description>Buffer size required for one frame.</Description>
    <Address>0x0008</Address>
    <AccessMode>RO</AccessMode>
  </Integer>
  <Enumeration Name="PixelFormat">
    <Description>Format of the image data.</Description>
    <Address>0x000C</Address>
    <LockedBy Feature="TLParamsLocked" Unless="0"/>
    <EnumEntry Name="Mono8"><Value>1</Value></EnumEntry>
    <EnumEntry Name="Mono12"><Value>5</Value></EnumEntry>
    <EnumEntry Name="RGB8"><Value>20</Value></EnumEntry>
  </Enumeration>
  <Float Name="ExposureTime">
    <Description>Exposure time.</Description>
    <Address>0x0010</Address>
    <Length>4</Length>
    <Min>10</Min>
    <Max>1000000</Max>
    <Unit>us</Unit>
  </Float>
  <Float Name="Gain">
    <Description>Analog gain.</Description>
    <Address>0x0014</Address>
    <Length>4</Length>
    <Min>0</Min>
    <Max>24</Max>
    <Unit>dB</Unit>
    <LockedBy Feature="GainAuto" Unless="Off"/>
  </Float>
  <Enumeration Name="GainAuto">
    <Address>0x0018</Address>
    <EnumEntry Name="Off"><Value>0</Value></EnumEntry>
    <EnumEntry Name="Continuous"><Value>1</Value></EnumEntry>
  </Enumeration>
  <Enumeration Name="TriggerMode">
    <Address>0x001C</Address>
    <EnumEntry Name="Off"><Value>0</Value></EnumEntry>
    <EnumEntry Name="On"><Value>1</Value></EnumEntry>
  </Enumeration>
  <Enumeration Name="TriggerSource">
    <Address>0x0020</Address>
    <EnumEntry Name="Software"><Value>0</Value></EnumEntry>
    <EnumEntry Name="Line0"><Value>1</Value></EnumEntry>
  </Enumeration>
  <Command Name="TriggerSoftware">
    <Description>Expose one frame.</Description>
    <Address>0x0024</Address>
  </Command>
  <Command Name="AcquisitionStart">
    <Address>0x0028</Address>
  </Command>
  <Command Name="AcquisitionStop">
    <Address>0x002C</Address>
  </Command>
  <Integer Name="TLParamsLocked">
    <Address>0x0030</Address>
    <Min>0</Min>
    <Max>1</Max>
  </Integer>
  <Float Name="Temperature">
    <Address>0x0034</Address>
    <Length>4</Length>
    <AccessMode>RO</AccessMode>
    <Unit>C</Unit>
  </Float>
</RegisterDescription>
`)

// ZipDescription wraps an XML description in a single-entry zip
// archive, as devices with compressed description storage deliver it.
func ZipDescription(xmlContent []byte) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("simcam.xml")
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(xmlContent); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// registerLocation renders the GenTL location string for a description
// mapped into register space.
func registerLocation(size int) string {
	return fmt.Sprintf("local:simcam.xml;%X;%X", descriptionAddress, size)
}
