// Package genapi parses a camera's register-description document into a
// node map and binds the nodes to a register port for live access.
//
// The description is an XML document listing the device's features as
// typed register views. The supported element set is a pragmatic subset
// of the GenICam GenApi schema:
//
//	<RegisterDescription ModelName="..." VendorName="...">
//	  <Integer Name="Width">
//	    <Description>Image width in pixels.</Description>
//	    <Address>0x0100</Address>
//	    <Length>4</Length>
//	    <AccessMode>RW</AccessMode>
//	    <Min>8</Min> <Max>4096</Max> <Inc>2</Inc>
//	    <LockedBy Feature="TLParamsLocked" Unless="0"/>
//	  </Integer>
//	  <Enumeration Name="PixelFormat">
//	    <Address>0x0110</Address> <Length>4</Length>
//	    <EnumEntry Name="Mono8"><Value>0x0108</Value></EnumEntry>
//	  </Enumeration>
//	  <Command Name="AcquisitionStart">
//	    <Address>0x0200</Address> <Length>4</Length>
//	    <CommandValue>1</CommandValue>
//	  </Command>
//	</RegisterDescription>
//
// A LockedBy element makes a node's access mode dynamic: while the
// referenced feature's current value differs from the Unless literal,
// write access is withdrawn. Access modes are therefore evaluated
// against the device on every query, never cached.
//
// Register values are big-endian. Nodes perform no policy checks; the
// typed feature layer in pkg/features gates every read and write on the
// live access mode.
package genapi
